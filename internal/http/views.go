package httpx

import (
	"strings"

	"github.com/gameup/gameup-web/internal/domain/access"
)

// viewTitles are the sidebar labels of the dashboard views.
//
//nolint:gochecknoglobals // static read-only lookup
var viewTitles = map[string]string{
	"/users":              "User Management",
	"/classes":            "Classes",
	"/analytics":          "Analytics",
	"/dashboard":          "Dashboard",
	"/tasks":              "Tasks",
	"/gradebook":          "Gradebook",
	"/attendance":         "Attendance",
	"/leaderboard":        "Leaderboard",
	"/rewards":            "Rewards",
	"/performance":        "Performance",
	"/badges":             "Badges",
	"/streaks":            "Streaks",
	"/challenges":         "Challenges",
	"/xp-history":         "XP History",
	"/teams":              "Teams",
	"/study-groups":       "Study Groups",
	"/quizzes":            "Quizzes",
	"/videos":             "Videos",
	"/notes":              "Notes",
	"/learning-analytics": "Learning Analytics",
	"/tournaments":        "Tournaments",
	"/peer-review":        "Peer Review",
	"/flashcards":         "Flashcards",
	"/calendar":           "Calendar",
	"/announcements":      "Announcements",
	"/resources":          "Resources",
	"/reports":            "Reports",
	"/messages":           "Messages",
	"/notifications":      "Notifications",
	"/profile":            "Profile",
	"/settings":           "Settings",
	"/parent-portal":      "Parent Portal",
}

// View is an opaque dashboard page addressed by path.
type View struct {
	Path  string
	Title string
}

// ViewRegistry holds one view per path that any role may reach.
type ViewRegistry struct {
	views []View
	index map[string]int
}

// NewViewRegistry registers a view for every path of table.
func NewViewRegistry(table *access.RouteTable) *ViewRegistry {
	paths := table.KnownPaths()
	reg := &ViewRegistry{
		views: make([]View, 0, len(paths)),
		index: make(map[string]int, len(paths)),
	}
	for _, p := range paths {
		reg.index[p] = len(reg.views)
		reg.views = append(reg.views, View{Path: p, Title: titleForPath(p)})
	}
	return reg
}

// Views returns the registered views in table order.
func (v *ViewRegistry) Views() []View {
	return append([]View(nil), v.views...)
}

// Lookup returns the view for path.
func (v *ViewRegistry) Lookup(path string) (View, bool) {
	i, ok := v.index[path]
	if !ok {
		return View{}, false
	}
	return v.views[i], true
}

// Title returns the display title of path, or "" when unregistered.
func (v *ViewRegistry) Title(path string) string {
	view, _ := v.Lookup(path)
	return view.Title
}

func titleForPath(p string) string {
	if t, ok := viewTitles[p]; ok {
		return t
	}
	words := strings.Split(strings.Trim(p, "/"), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
