package aggregate

// ArtifactVersion is bumped whenever the descriptor layout changes.
const ArtifactVersion = 1

// ArtifactField is one labelled line of a detail page.
type ArtifactField struct {
	Key   string `json:"key" bson:"key"`
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// Artifact is the presentation descriptor derived from a Store. It is
// always created and removed together with its Store.
type Artifact struct {
	Version  int             `json:"version" bson:"version"`
	StoreID  string          `json:"storeId" bson:"storeId"`
	Category string          `json:"category" bson:"category"`
	Bucket   string          `json:"bucket" bson:"bucket"`
	Title    string          `json:"title" bson:"title"`
	Template string          `json:"template" bson:"template"`
	Fields   []ArtifactField `json:"fields" bson:"fields"`
	Digest   string          `json:"digest" bson:"digest"`
}

// Clone returns a deep copy.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	c := *a
	c.Fields = append([]ArtifactField(nil), a.Fields...)
	return &c
}
