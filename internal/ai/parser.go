package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"forge-server/internal/models"
)

// maxHierarchyDepth bounds scene trees coming back from the model. The
// structure is AI-generated and unvalidated upstream, so a runaway or cyclic
// tree must be rejected before it replaces editor state.
const maxHierarchyDepth = 32

// ExtractJSON strips markdown code fences and surrounding noise from a model
// reply, returning the JSON document between the first '{' or '[' and its
// matching end of text.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	objStart := strings.IndexAny(s, "{[")
	if objStart > 0 {
		s = s[objStart:]
	}
	return strings.TrimSpace(s)
}

// ParseSpecification decodes a specification-synthesis reply.
func ParseSpecification(raw string) (*models.Specification, error) {
	var spec models.Specification
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &spec); err != nil {
		return nil, fmt.Errorf("%w: unparseable specification reply: %v", ErrAIGenerationFailed, err)
	}
	if spec.Description == "" {
		return nil, fmt.Errorf("%w: specification reply missing description", ErrAIGenerationFailed)
	}
	if len(spec.Mechanics) == 0 {
		return nil, fmt.Errorf("%w: specification reply missing mechanics", ErrAIGenerationFailed)
	}
	if spec.VisualStyle == "" {
		return nil, fmt.Errorf("%w: specification reply missing visual style", ErrAIGenerationFailed)
	}
	return &spec, nil
}

// ParseProjectFiles decodes a project-file-synthesis reply and validates the
// file set and hierarchy.
func ParseProjectFiles(raw string) (*ProjectFiles, error) {
	var pf ProjectFiles
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &pf); err != nil {
		return nil, fmt.Errorf("%w: unparseable project files reply: %v", ErrAIGenerationFailed, err)
	}
	if len(pf.Files) == 0 {
		return nil, fmt.Errorf("%w: project files reply contains no files", ErrAIGenerationFailed)
	}
	for i := range pf.Files {
		if pf.Files[i].Filename == "" {
			return nil, fmt.Errorf("%w: project file %d has no filename", ErrAIGenerationFailed, i)
		}
		if pf.Files[i].Type != models.ScriptTypeScene {
			pf.Files[i].Type = models.ScriptTypeScript
		}
	}
	if err := ValidateHierarchy(pf.Hierarchy); err != nil {
		return nil, err
	}
	return &pf, nil
}

// ParseCopilotReply decodes a copilot reply. The text field is required;
// updates are optional and validated when present.
func ParseCopilotReply(raw string) (*models.CopilotReply, error) {
	var reply models.CopilotReply
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &reply); err != nil {
		return nil, fmt.Errorf("%w: unparseable copilot reply: %v", ErrAIGenerationFailed, err)
	}
	if reply.Text == "" {
		return nil, fmt.Errorf("%w: copilot reply missing text", ErrAIGenerationFailed)
	}
	if reply.Updates != nil {
		for i, f := range reply.Updates.FilesToUpdate {
			if f.Filename == "" {
				return nil, fmt.Errorf("%w: copilot file update %d has no filename", ErrAIGenerationFailed, i)
			}
		}
		if len(reply.Updates.NewHierarchy) > 0 {
			if err := ValidateHierarchy(reply.Updates.NewHierarchy); err != nil {
				return nil, err
			}
		}
	}
	return &reply, nil
}

// ValidateHierarchy walks an AI-produced scene tree, rejecting trees that
// exceed the depth bound or repeat node ids (a repeated id is how a cycle in
// the source structure would surface after decoding).
func ValidateHierarchy(nodes []models.SceneNode) error {
	seen := make(map[string]struct{})
	return walkHierarchy(nodes, 1, seen)
}

func walkHierarchy(nodes []models.SceneNode, depth int, seen map[string]struct{}) error {
	if depth > maxHierarchyDepth {
		return fmt.Errorf("%w: hierarchy exceeds depth %d", ErrAIGenerationFailed, maxHierarchyDepth)
	}
	for _, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: hierarchy node %q has no id", ErrAIGenerationFailed, n.Name)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: hierarchy repeats node id %q", ErrAIGenerationFailed, n.ID)
		}
		seen[n.ID] = struct{}{}
		if err := walkHierarchy(n.Children, depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}
