package catalog

import "github.com/iliyamo/discover-nairobi/internal/model"

type fixture struct {
	id, title, description, category string
	date, clock                      string
	venue, neighborhood              string
	price                            float64
	image, organizer                 string
}

var fixtures = []fixture{
	{"1", "Rooftop Jazz Night at Kilimanjaro", "Live jazz under the Nairobi stars", "Live Music",
		"2025-10-20", "19:30", "Kilimanjaro Jamia, Westlands", "Westlands", 2500,
		"https://images.unsplash.com/photo-1514525253161-7a46d19cd819?w=800", "Nairobi Jazz Collective"},
	{"2", "Sunrise Yoga & Meditation", "Start your day with peace and mindfulness", "Wellness & Fitness",
		"2025-10-21", "07:00", "Karura Forest, Muthaiga", "Muthaiga", 1000,
		"https://images.unsplash.com/photo-1506126613408-eca07ce68773?w=800", "Nairobi Wellness Hub"},
	{"3", "Tech Innovators Meetup", "Connect with Nairobi's tech community", "Tech & Innovation",
		"2025-10-22", "14:00", "iHub, Ngong Road", "Kilimani", 0,
		"https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800", "Nairobi Tech Scene"},
	{"4", "International DJ Night: Afro House", "Dance till dawn with top international DJs", "International DJs",
		"2025-10-23", "22:00", "Alchemist Bar, Westlands", "Westlands", 3000,
		"https://images.unsplash.com/photo-1470225620780-dba8ba36b745?w=800", "Nairobi Nightlife"},
	{"5", "Contemporary Art Exhibition", "Showcasing East African artists", "Art Exhibitions",
		"2025-10-24", "11:00", "Circle Art Gallery, Karen", "Karen", 800,
		"https://images.unsplash.com/photo-1531243269054-5ebf6f34081e?w=800", "Circle Art Gallery"},
	{"6", "Street Food Festival", "Taste Nairobi's best street food", "Food & Dining",
		"2025-10-25", "16:00", "Two Rivers Mall, Ruaka", "Ruaka", 1500,
		"https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800", "Nairobi Foodies"},
	{"7", "Organic Farmers Market", "Fresh produce from farms around the city", "Food & Dining",
		"2025-10-26", "09:00", "Karen Country Club", "Karen", 500,
		"https://images.unsplash.com/photo-1533900298318-6b8da08a523e?w=800", "Karen Growers"},
	{"8", "Morning Run & Coffee", "A 5K forest loop followed by coffee", "Wellness & Fitness",
		"2025-10-27", "06:30", "Karura Forest Main Gate", "Muthaiga", 500,
		"https://images.unsplash.com/photo-1476480862126-209bfaa8edc8?w=800", "Nairobi Runners"},
	{"9", "Jockey Polo Tournament", "An afternoon of polo and picnics", "Sports",
		"2025-10-28", "15:00", "Karen Polo Club", "Karen", 5000,
		"https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=800", "Karen Polo Club"},
}

// Samples returns the built-in sample events.
func Samples() []Event {
	out := make([]Event, 0, len(fixtures))
	for _, f := range fixtures {
		day, err := dayStart(f.date)
		if err != nil {
			continue
		}
		out = append(out, Event{
			ID:            f.id,
			Title:         f.title,
			Category:      f.category,
			Description:   f.description,
			Date:          f.date,
			Time:          f.clock,
			StartsAt:      combine(day, f.clock),
			Venue:         f.venue,
			Neighborhood:  f.neighborhood,
			Price:         f.price,
			ImageURL:      f.image,
			OrganizerName: f.organizer,
			Status:        model.EventPublished,
			Source:        SourceSample,
		})
	}
	return out
}
