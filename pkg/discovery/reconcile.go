package discovery

import "github.com/amaumene/cinesift/pkg/models"

// Reconcile assembles the final list from resolver slots: candidate order is
// kept, empty slots are dropped and an item already taken by an earlier
// candidate is skipped. The result is never nil.
//
// Items are unique by Key, that is by kind and id. TMDB numbers movies and
// shows independently, so a movie and a show may share an id in one result.
func Reconcile(slots []*models.MediaItem) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if slot == nil || !slot.Kind.IsTitle() {
			continue
		}
		key := slot.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, *slot)
	}
	return items
}
