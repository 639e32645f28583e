package extract

import "kickstarter-scraper/models"

// The platform's two-level category taxonomy. Order matters: a few
// subcategory names ("Comedy", "Events", "Spaces") appear under several
// top-level categories and the first match wins.
var taxonomy = []struct {
	name string
	subs []string
}{
	{"Art", []string{"Ceramics", "Conceptual Art", "Digital Art", "Illustration", "Installations", "Mixed Media", "Painting", "Performance Art", "Public Art", "Sculpture", "Social Practice", "Textiles", "Video Art"}},
	{"Comics", []string{"Anthologies", "Comic Books", "Events", "Graphic Novels", "Webcomics"}},
	{"Crafts", []string{"Candles", "Crochet", "DIY", "Embroidery", "Glass", "Knitting", "Pottery", "Printing", "Quilts", "Stationery", "Taxidermy", "Weaving", "Woodworking"}},
	{"Dance", []string{"Performances", "Residencies", "Spaces", "Workshops"}},
	{"Design", []string{"Architecture", "Civic Design", "Graphic Design", "Interactive Design", "Product Design", "Toys", "Typography"}},
	{"Fashion", []string{"Accessories", "Apparel", "Childrenswear", "Couture", "Footwear", "Jewelry", "Pet Fashion", "Ready-to-wear"}},
	{"Film & Video", []string{"Action", "Animation", "Comedy", "Documentary", "Drama", "Experimental", "Family", "Fantasy", "Festivals", "Horror", "Movie Theaters", "Music Videos", "Narrative Film", "Romance", "Science Fiction", "Shorts", "Television", "Thrillers", "Webseries"}},
	{"Food", []string{"Bacon", "Community Gardens", "Cookbooks", "Drinks", "Events", "Farmer's Markets", "Farms", "Food Trucks", "Restaurants", "Small Batch", "Spaces", "Vegan"}},
	{"Games", []string{"Gaming Hardware", "Live Games", "Mobile Games", "Playing Cards", "Puzzles", "Tabletop Games", "Video Games"}},
	{"Journalism", []string{"Audio", "Photo", "Print", "Video", "Web"}},
	{"Music", []string{"Blues", "Chiptune", "Classical Music", "Comedy", "Country & Folk", "Electronic Music", "Faith", "Hip-Hop", "Indie Rock", "Jazz", "Kids", "Latin", "Metal", "Pop", "Punk", "R&B", "Rock", "World Music"}},
	{"Photography", []string{"Animals", "Fine Art", "Nature", "People", "Photobooks", "Places"}},
	{"Publishing", []string{"Academic", "Anthologies", "Art Books", "Calendars", "Children's Books", "Comedy", "Fiction", "Letterpress", "Literary Journals", "Literary Spaces", "Nonfiction", "Periodicals", "Poetry", "Radio & Podcasts", "Translations", "Young Adult", "Zines"}},
	{"Technology", []string{"3D Printing", "Apps", "Camera Equipment", "DIY Electronics", "Fabrication Tools", "Flight", "Gadgets", "Hardware", "Makerspaces", "Robots", "Software", "Sound", "Space Exploration", "Wearables", "Web"}},
	{"Theater", []string{"Comedy", "Experimental", "Festivals", "Immersive", "Musical", "Plays", "Spaces"}},
}

// ResolveCategory resolves a label that may be either a category or a
// subcategory. A top-level name maps to itself with no subcategory; a known
// subcategory maps to its parent. Unknown labels pass through unchanged: the
// taxonomy enriches, it never filters.
func ResolveCategory(label string) (string, models.Opt[string]) {
	for _, cat := range taxonomy {
		if cat.name == label {
			return label, models.None[string]()
		}
	}
	for _, cat := range taxonomy {
		for _, sub := range cat.subs {
			if sub == label {
				return cat.name, models.Some(label)
			}
		}
	}
	return label, models.None[string]()
}
