package state

// ParticipantView is the public part of a participant shown in room listings.
type ParticipantView struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ActiveRoom is one entry of the active-rooms summary.
type ActiveRoom struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	UserCount int               `json:"userCount"`
	Users     []ParticipantView `json:"users"`
}

// RoomSummary is one entry of the list-rooms query.
type RoomSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"user_count"`
}

// ActiveRooms keeps the rooms that have at least one participant.
// Positions and connection ids are withheld.
func ActiveRooms(rooms []Room) []ActiveRoom {
	out := make([]ActiveRoom, 0, len(rooms))
	for _, room := range rooms {
		if len(room.Participants) == 0 {
			continue
		}
		users := make([]ParticipantView, 0, len(room.Participants))
		for _, p := range room.Participants {
			users = append(users, ParticipantView{Name: p.Name, Color: p.Color})
		}
		out = append(out, ActiveRoom{
			ID:        room.ID,
			Name:      room.Name,
			UserCount: len(room.Participants),
			Users:     users,
		})
	}
	return out
}

// Summaries lists every room, empty ones included.
func Summaries(rooms []Room) []RoomSummary {
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomSummary{
			ID:        room.ID,
			Name:      room.Name,
			UserCount: len(room.Participants),
		})
	}
	return out
}

// PeerIDs returns the connection ids in room other than self.
func PeerIDs(room Room, self string) []string {
	peers := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p.ID != self {
			peers = append(peers, p.ID)
		}
	}
	return peers
}
