package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"forge-server/internal/models"
)

// System instruction for the copilot contract. The same contract serves the
// in-editor copilot and the homepage platform guide (which sends an empty
// project under the title "Polarity Platform").
const copilotSystemInstruction = "You are a senior Godot developer. Provide helpful, professional advice " +
	"and generate code or hierarchy changes when asked. You can handle images, audio, video, and text as context."

const specSystemInstruction = "You are a game design assistant. Respond with a single JSON object only, " +
	"with keys: description (string), mechanics (array of strings), visualStyle (string), aiPromptForThumbnail (string)."

const projectFilesSystemInstruction = "You are a Godot 4 project generator. Respond with a single JSON object only, " +
	"with keys: files (array of {filename, content, type}) and hierarchy (array of scene nodes " +
	"{id, name, type, icon, children})."

// buildSpecPrompt renders the user prompt for specification synthesis.
func buildSpecPrompt(title string, genre models.Genre, prompt string) string {
	return fmt.Sprintf("Generate a detailed game specification for a game titled %q in the %s genre.\nUser request: %s",
		title, genre, prompt)
}

// buildProjectFilesPrompt renders the user prompt for project-file synthesis.
func buildProjectFilesPrompt(title string, genre models.Genre, spec *models.Specification) string {
	description := ""
	if spec != nil {
		description = spec.Description
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a full Godot 4 project structure for: %q.\n", title)
	fmt.Fprintf(&b, "Genre: %s\n", genre)
	fmt.Fprintf(&b, "Description: %s\n\n", description)
	b.WriteString("Requirements:\n")
	b.WriteString("1. Provide at least 3 files: a Main.tscn, a Player.tscn, and a Player.gd.\n")
	b.WriteString("2. The .tscn files must be valid Godot 4 text scenes.\n")
	b.WriteString("3. The .gd files must be valid GDScript.\n")
	b.WriteString("4. Provide a simplified JSON \"hierarchy\" that mirrors the Main.tscn for the UI.\n")
	return b.String()
}

// buildThumbnailPrompt renders the image prompt for thumbnail synthesis.
func buildThumbnailPrompt(prompt string) string {
	return "High-quality cinematic game cover art: " + prompt
}

// buildCopilotPrompt renders the user prompt for one copilot exchange. The
// transcript and project state travel inside the prompt; the structured
// response schema is described so the reply parses into CopilotReply.
func buildCopilotPrompt(req CopilotRequest) string {
	filenames := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		filenames = append(filenames, f.Filename)
	}
	filesJSON, _ := json.Marshal(filenames)
	hierarchyJSON, _ := json.Marshal(req.Hierarchy)

	var b strings.Builder
	fmt.Fprintf(&b, "You are Polarity Engine Copilot. User is building %q.\n", req.GameTitle)
	fmt.Fprintf(&b, "Current Files: %s\n", filesJSON)
	fmt.Fprintf(&b, "Current Hierarchy: %s\n", hierarchyJSON)

	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range req.History {
			fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Text)
		}
	}

	fmt.Fprintf(&b, "User Message: %s\n\n", req.Message)
	b.WriteString("Respond with a single JSON object:\n")
	b.WriteString("1. A conversational \"text\" response.\n")
	b.WriteString("2. Optional \"updates\" with \"filesToUpdate\" (array of {filename, content, type}), ")
	b.WriteString("\"filesToDelete\" (array of filenames), and \"newHierarchy\" (array of scene nodes).\n\n")
	b.WriteString("If an annotation image is provided, interpret the drawings and highlights to modify ")
	b.WriteString("the code or scene structure accordingly.")
	return b.String()
}

// describeAttachment renders a non-image attachment as inline text context.
func describeAttachment(att models.Attachment) string {
	return fmt.Sprintf("\n\n[Attached file %q (%s), base64]:\n%s", att.Name, att.MimeType, att.Data)
}
