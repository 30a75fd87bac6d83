package state

// Participant is a live connection's presence within a room.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	RoomID string  `json:"roomId"`
}

// Object is a visual artifact placed on a room's canvas.
// Updates replace it wholesale.
type Object struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Content  string  `json:"content"`
	ZIndex   int     `json:"zIndex"`
	Rotation float64 `json:"rotation"`
}

// Room is a named shared space. Participants and Objects keep insertion order.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Participants []Participant `json:"users"`
	Objects      []Object      `json:"objects"`
	Background   *string       `json:"background"`
}

// ChatMessage is immutable once created. UserName is captured at send time.
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Clone returns a deep copy safe to hand out of the registry.
func (r *Room) Clone() Room {
	out := Room{
		ID:           r.ID,
		Name:         r.Name,
		Participants: make([]Participant, len(r.Participants)),
		Objects:      make([]Object, len(r.Objects)),
	}
	copy(out.Participants, r.Participants)
	copy(out.Objects, r.Objects)
	if r.Background != nil {
		bg := *r.Background
		out.Background = &bg
	}
	return out
}

func (r *Room) participantIndex(connID string) int {
	for i := range r.Participants {
		if r.Participants[i].ID == connID {
			return i
		}
	}
	return -1
}

func (r *Room) objectIndex(objectID string) int {
	for i := range r.Objects {
		if r.Objects[i].ID == objectID {
			return i
		}
	}
	return -1
}
