package protocol

import "encoding/json"

const Version = "1.0"

// Server -> client message types.
const (
	TypeSnapshot   = "snapshot"
	TypeZLevel     = "z_level"
	TypeDelta      = "delta"
	TypePauseState = "pause_state"
	TypeError      = "error"
)

// Client -> server message types.
const (
	TypeRequestZLevel = "request_z_level"
	TypePause         = "pause"
	TypeDesignate     = "designate"
	TypeTerrainEdit   = "terrain_edit"
)

// EncodingRLE selects run-length encoded z-level layers.
const EncodingRLE = "rle"

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
