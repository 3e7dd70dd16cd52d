package types

// FeatureMaster is one entry of the features master list (amenity codes the
// filter drawer offers).
type FeatureMaster struct {
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CategoryMaster is one entry of the place category master list.
type CategoryMaster struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Sort  int    `json:"sort"`
}

// AgeBand is a child age band option used on profiles and reviews.
type AgeBand struct {
	ID    string `json:"id,omitempty"`
	Code  string `json:"code"`
	Label string `json:"label"`
	Sort  int    `json:"sort"`
}
