package models

// Genre is the fixed set of game genres offered by the wizard.
type Genre string

const (
	GenreAction     Genre = "Action"
	GenreAdventure  Genre = "Adventure"
	GenrePuzzle     Genre = "Puzzle"
	GenreRPG        Genre = "RPG"
	GenrePlatformer Genre = "Platformer"
	GenreShooter    Genre = "Shooter"
	GenreRacing     Genre = "Racing"
	GenreSimulation Genre = "Simulation"
	GenreStrategy   Genre = "Strategy"
	GenreHorror     Genre = "Horror"
)

// Genres lists all selectable genres in display order.
var Genres = []Genre{
	GenreAction, GenreAdventure, GenrePuzzle, GenreRPG, GenrePlatformer,
	GenreShooter, GenreRacing, GenreSimulation, GenreStrategy, GenreHorror,
}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// GameStatus is the lifecycle state of a game project.
type GameStatus string

const (
	StatusConcept       GameStatus = "Concept"
	StatusInDevelopment GameStatus = "In Development"
	StatusCompleted     GameStatus = "Completed"
)

// ScriptType distinguishes code files from scene descriptions.
type ScriptType string

const (
	ScriptTypeScript ScriptType = "script"
	ScriptTypeScene  ScriptType = "scene"
)

// LastModifiedLayout is the display format stored in Game.LastModified.
// The export manifest must deep-equal the stored record, so the date is
// persisted already formatted rather than as a timestamp.
const LastModifiedLayout = "Jan 2, 2006"

// GameScript is one project file. Filenames are unique within a game's file
// set by convention; the last remaining file can never be removed.
type GameScript struct {
	Filename string     `json:"filename"`
	Content  string     `json:"content"`
	Type     ScriptType `json:"type"`
}

// SceneNode is one node of the scene hierarchy tree. The tree is produced by
// the AI gateway and replaced wholesale, never diffed.
type SceneNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Icon     string      `json:"icon"`
	Children []SceneNode `json:"children,omitempty"`
	IsOpen   *bool       `json:"isOpen,omitempty"`
}

// GameAsset is a declared asset reference. Assets are currently tracked only
// by shape; nothing reads them beyond listing.
type GameAsset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
	Size string `json:"size,omitempty"`
}

// Specification is the AI-synthesized game specification reviewed in the
// wizard's final step.
type Specification struct {
	Description          string   `json:"description"`
	Mechanics            []string `json:"mechanics"`
	VisualStyle          string   `json:"visualStyle"`
	AIPromptForThumbnail string   `json:"aiPromptForThumbnail,omitempty"`
}

// Game is one project record. The persisted collection is the single source
// of truth; the editor works on local copies and pushes updates back.
type Game struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Genre         Genre          `json:"genre"`
	Description   string         `json:"description"`
	ThumbnailURL  string         `json:"thumbnailUrl,omitempty"`
	Status        GameStatus     `json:"status"`
	LastModified  string         `json:"lastModified"`
	Assets        []GameAsset    `json:"assets"`
	Scripts       []GameScript   `json:"scripts,omitempty"`
	Hierarchy     []SceneNode    `json:"hierarchy,omitempty"`
	Specification *Specification `json:"specification,omitempty"`
}

// GameUpdate is a shallow-merge partial update. Nil fields are left untouched;
// slice fields replace the stored value wholesale when non-nil.
type GameUpdate struct {
	Title         *string        `json:"title,omitempty"`
	Genre         *Genre         `json:"genre,omitempty"`
	Description   *string        `json:"description,omitempty"`
	ThumbnailURL  *string        `json:"thumbnailUrl,omitempty"`
	Status        *GameStatus    `json:"status,omitempty"`
	Scripts       []GameScript   `json:"scripts,omitempty"`
	Hierarchy     []SceneNode    `json:"hierarchy,omitempty"`
	Specification *Specification `json:"specification,omitempty"`
}

// Clone returns a deep copy of the game.
func (g Game) Clone() Game {
	out := g
	out.Assets = append([]GameAsset(nil), g.Assets...)
	out.Scripts = CloneScripts(g.Scripts)
	out.Hierarchy = CloneNodes(g.Hierarchy)
	if g.Specification != nil {
		spec := *g.Specification
		spec.Mechanics = append([]string(nil), g.Specification.Mechanics...)
		out.Specification = &spec
	}
	return out
}

// CloneScripts returns a copy of the file list.
func CloneScripts(scripts []GameScript) []GameScript {
	if scripts == nil {
		return nil
	}
	return append([]GameScript(nil), scripts...)
}

// CloneNodes returns a deep copy of a scene hierarchy.
func CloneNodes(nodes []SceneNode) []SceneNode {
	if nodes == nil {
		return nil
	}
	out := make([]SceneNode, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = CloneNodes(n.Children)
		if n.IsOpen != nil {
			open := *n.IsOpen
			out[i].IsOpen = &open
		}
	}
	return out
}
