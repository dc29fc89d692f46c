package model

// Event is one competition a registrant can sign up for.
type Event struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Event categories.
const (
	CategoryTechnical = "technical"
	CategoryCultural  = "cultural"
	CategoryGeneral   = "general"
)

var events = []Event{
	{Slug: "coding-contest", Name: "Coding Contest", Category: CategoryTechnical},
	{Slug: "web-development", Name: "Web Development", Category: CategoryTechnical},
	{Slug: "ai-ml-challenge", Name: "AI/ML Challenge", Category: CategoryTechnical},
	{Slug: "robotics", Name: "Robotics Competition", Category: CategoryTechnical},
	{Slug: "hackathon", Name: "24hr Hackathon", Category: CategoryTechnical},
	{Slug: "quiz-competition", Name: "Tech Quiz", Category: CategoryTechnical},
	{Slug: "photography", Name: "Photography Contest", Category: CategoryCultural},
	{Slug: "cultural-dance", Name: "Cultural Dance", Category: CategoryCultural},
	{Slug: "music-competition", Name: "Music Competition", Category: CategoryCultural},
	{Slug: "drama-theatre", Name: "Drama & Theatre", Category: CategoryCultural},
	{Slug: "startup-pitch", Name: "Startup Pitch", Category: CategoryGeneral},
	{Slug: "gaming-esports", Name: "Gaming & E-Sports", Category: CategoryGeneral},
}

// Events returns the festival's event catalog in display order. The returned
// slice is a copy.
func Events() []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// LookupEvent returns the catalog entry for slug.
func LookupEvent(slug string) (Event, bool) {
	for _, e := range events {
		if e.Slug == slug {
			return e, true
		}
	}
	return Event{}, false
}
