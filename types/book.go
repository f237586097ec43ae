package types

// Chapter is one chapter summary extracted by the service.
// JSON tags follow the service wire format.
type Chapter struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Summary string `json:"summary" yaml:"summary"`
}

// Character is one character profile extracted by the service.
type Character struct {
	Name                     string `json:"name" yaml:"name"`
	Arc                      string `json:"arc" yaml:"arc"`
	PhysicalDescription      string `json:"physical_desc" yaml:"physical_desc"`
	PsychologicalDescription string `json:"psychological_desc" yaml:"psychological_desc"`
}
