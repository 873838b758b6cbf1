package domain

// Message is a single chat message as it travels from the ingress endpoint
// through the hub to every listener. It is a plain value; once published it
// is never mutated.
type Message struct {
	Room        string `json:"room" form:"room"`
	Username    string `json:"username" form:"username"`
	Message     string `json:"message" form:"message"`
	AvatarStyle string `json:"avatar_style" form:"avatar_style"`
}

// Field length limits enforced at the ingress boundary.
const (
	MaxRoomLength     = 30
	MaxUsernameLength = 20
)
