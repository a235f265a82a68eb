package types

// Player is the external view of a roster member.
type Player struct {
	Id        string `json:"player_id"`
	Name      string `json:"player_name"`
	Connected bool   `json:"connected"`
}

// Room is the external view of a room returned by the status query.
type Room struct {
	Id                 string   `json:"id"`
	PlayerCount        int      `json:"player_count"`
	Players            []Player `json:"players"`
	Locked             bool     `json:"locked"`
	ReconnectedPlayers []Player `json:"reconnected_players"`
}

// RoomCredentials is returned on room creation. The secret key is the
// capability for every privileged operation on the room.
type RoomCredentials struct {
	Id        string `json:"id"`
	SecretKey string `json:"secret_key"`
}
