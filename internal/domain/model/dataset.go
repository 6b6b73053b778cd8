package model

// Threshold holds the top/bottom decile cut-offs for one metric.
type Threshold struct {
	Top10    float64 `json:"top10"`
	Bottom10 float64 `json:"bottom10"`
}

// FilterOptions lists the distinct categorical values present in the data.
type FilterOptions struct {
	Regions  []string `json:"regions"`
	JobTypes []string `json:"jobTypes"`
	Roles    []string `json:"roles"`
	Noms     []string `json:"noms"`
	Roms     []string `json:"roms"`
}

// DateRange is the inclusive span of job dates.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Dataset is the on-disk shape of the record corpus.
type Dataset struct {
	Technicians   []Technician         `json:"technicians"`
	Jobs          []Job                `json:"jobs"`
	Thresholds    map[string]Threshold `json:"thresholds,omitempty"`
	FilterOptions *FilterOptions       `json:"filterOptions,omitempty"`
	DateRange     *DateRange           `json:"dateRange,omitempty"`
}
