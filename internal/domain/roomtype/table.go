// Package roomtype holds the fixed room-type vocabulary: keyword patterns, synonyms and label matching.
package roomtype

// Pattern maps a canonical room type to the keywords that imply it.
type Pattern struct {
	RoomType string
	Keywords []string
}

// Patterns is consulted in order; the first entry with a keyword hit wins.
var Patterns = []Pattern{
	{RoomType: "bedroom", Keywords: []string{"bed", "sleep", "master", "guest", "study room"}},
	{RoomType: "kitchen", Keywords: []string{"kitchen", "cook", "culinary", "modular"}},
	{RoomType: "living room", Keywords: []string{"living", "lounge", "family", "drawing"}},
	{RoomType: "bathroom", Keywords: []string{"bath", "toilet", "washroom", "powder"}},
	{RoomType: "dining room", Keywords: []string{"dining", "eat", "dinner"}},
	{RoomType: "home office", Keywords: []string{"office", "study", "work", "workspace"}},
	{RoomType: "entrance", Keywords: []string{"entrance", "entry", "foyer", "hall"}},
	{RoomType: "staircase", Keywords: []string{"stair", "steps"}},
	{RoomType: "balcony", Keywords: []string{"balcony", "terrace", "veranda"}},
	{RoomType: "prayer room", Keywords: []string{"pooja", "mandir", "temple", "prayer"}},
}

// synonyms groups labels that name the same space. The first element is canonical.
var synonyms = [][]string{
	{"living room", "living", "lounge", "sitting room", "family room", "drawing room"},
	{"bedroom", "bed room", "master bedroom", "guest bedroom", "kids room"},
	{"kitchen", "modular kitchen", "kitchenette"},
	{"bathroom", "washroom", "toilet", "restroom", "powder room"},
	{"dining room", "dining", "dining area"},
	{"home office", "study", "study room", "office", "workspace"},
	{"entrance", "entryway", "foyer", "entry"},
	{"staircase", "stairs", "stairway"},
	{"balcony", "terrace", "veranda", "verandah"},
	{"prayer room", "pooja room", "puja room", "mandir", "temple room"},
}

// Context patterns used when no classifier is configured.
var (
	roomContextPatterns = []string{
		"living room", "bedroom", "kitchen", "bathroom", "dining room", "home office", "study",
		"entryway", "foyer", "balcony", "terrace", "pooja room", "prayer room", "mandir",
		"temple room", "closet", "wardrobe room", "pooja unit", "mandir unit", "prayer unit",
		"temple unit",
	}
	furnitureContextPatterns = []string{
		"wardrobe", "closet", "cabinet", "shelf", "sofa", "couch", "dining table", "coffee table",
		"bed", "chair", "desk", "table", "mirror", "lighting", "lamp", "curtain", "blind",
		"carpet", "rug", "painting", "art", "vase", "plant", "decor", "furniture", "storage",
	}
)
