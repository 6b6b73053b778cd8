package datagen

// Categorical vocabularies. Each region owns its cities and its NOM/ROM
// managers so the filter options stay consistent.
var (
	regions = []region{
		{name: "North", cities: []string{"Leeds", "York", "Newcastle"}, nom: "NOM-North", roms: []string{"ROM-N1", "ROM-N2"}},
		{name: "South", cities: []string{"Brighton", "Southampton", "Portsmouth"}, nom: "NOM-South", roms: []string{"ROM-S1", "ROM-S2"}},
		{name: "East", cities: []string{"Norwich", "Ipswich", "Cambridge"}, nom: "NOM-East", roms: []string{"ROM-E1"}},
		{name: "West", cities: []string{"Bristol", "Exeter", "Plymouth"}, nom: "NOM-West", roms: []string{"ROM-W1", "ROM-W2"}},
		{name: "Central", cities: []string{"Birmingham", "Coventry", "Leicester"}, nom: "NOM-Central", roms: []string{"ROM-C1"}},
	}

	roles = []string{"Technician", "Senior Technician", "Lead Technician"}

	jobTypes = []jobType{
		{name: "Installation", baseMinutes: 120},
		{name: "Repair", baseMinutes: 75},
		{name: "Maintenance", baseMinutes: 60},
		{name: "Inspection", baseMinutes: 40},
		{name: "Upgrade", baseMinutes: 90},
	}

	skills = []string{"Fibre", "Copper", "Wireless", "Networking", "Electrical", "Customer Service", "Safety"}

	firstNames = []string{"Alex", "Sam", "Jordan", "Priya", "Chen", "Maria", "Tom", "Aisha", "Luca", "Nina", "Omar", "Grace"}
	lastNames  = []string{"Smith", "Patel", "Jones", "Kowalski", "Nguyen", "Brown", "Okafor", "Garcia", "Evans", "Khan"}
)

type region struct {
	name   string
	cities []string
	nom    string
	roms   []string
}

type jobType struct {
	name        string
	baseMinutes int
}

// profile is a technician's latent ability, drawn once and applied to
// every job they do.
type profile struct {
	fixProb     float64 // chance of a first-time fix
	slaProb     float64 // chance of meeting SLA
	revisitProb float64 // chance the job needs a revisit
	speed       float64 // multiplier on job base minutes, lower is faster
	perDay      int     // maximum jobs on a working day
	completion  float64 // share of assigned tasks completed
}

// Tiers by performance score, highest first.
var tiers = []struct {
	min  float64
	name string
}{
	{85, "Top Performer"},
	{70, "Strong Performer"},
	{55, "Developing"},
	{0, "Needs Improvement"},
}

// Score weights. The speed component maps the average completion time
// onto 0..100 between fastMinutes and slowMinutes.
const (
	weightFTFR       = 0.35
	weightSLA        = 0.25
	weightCompletion = 0.20
	weightSpeed      = 0.20
	fastMinutes      = 30.0
	slowMinutes      = 180.0
)
