package models

// ChatRole identifies the author of a transcript message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one entry in a copilot transcript. Transcripts are
// append-only and live only for the duration of the editor session.
type ChatMessage struct {
	Role          ChatRole `json:"role"`
	Text          string   `json:"text"`
	HasAnnotation bool     `json:"hasAnnotation,omitempty"`
}

// CopilotUpdates carries the project mutations proposed by the copilot.
// FilesToUpdate merge by filename (match replaces, otherwise append).
// FilesToDelete remove by filename; a deletion that would empty the file
// list is rejected. NewHierarchy replaces the scene tree wholesale.
type CopilotUpdates struct {
	FilesToUpdate []GameScript `json:"filesToUpdate,omitempty"`
	FilesToDelete []string     `json:"filesToDelete,omitempty"`
	NewHierarchy  []SceneNode  `json:"newHierarchy,omitempty"`
}

// CopilotReply is the structured copilot response.
type CopilotReply struct {
	Text    string          `json:"text"`
	Updates *CopilotUpdates `json:"updates,omitempty"`
}
