package casino

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"vrfRoulette/internal/model"
)

// Event is the closed set of casino events. Use a type switch over
// RequestInitiated, ResultReady, RandomnessFulfilled and Unknown.
type Event interface {
	casinoEvent()
}

// RequestInitiated is emitted by play() with the VRF request id.
type RequestInitiated struct {
	Player    string
	RequestID *big.Int
}

// ResultReady carries the drawn wheel number for a player.
type ResultReady struct {
	Player string
	Number int
}

// RandomnessFulfilled is the VRF fulfillment. Informational only.
type RandomnessFulfilled struct {
	RequestID  *big.Int
	RandomWord *big.Int
}

// Unknown is any log that is not a well-formed casino event.
type Unknown struct {
	Name string
}

func (RequestInitiated) casinoEvent()    {}
func (ResultReady) casinoEvent()         {}
func (RandomnessFulfilled) casinoEvent() {}
func (Unknown) casinoEvent()             {}

// Typed converts a DecodedEvent into its variant. Events whose required
// fields fell back during decoding come back as Unknown.
func Typed(event model.DecodedEvent) Event {
	switch event.Kind {
	case model.KindRequestInitiated:
		player, ok := addressField(event, "player")
		if !ok {
			break
		}
		id, ok := intField(event, "requestId")
		if !ok {
			break
		}
		return RequestInitiated{Player: player, RequestID: id}
	case model.KindResultReady:
		player, ok := addressField(event, "player")
		if !ok {
			break
		}
		n, ok := intField(event, DrawnNumberField)
		if !ok || !n.IsInt64() || !model.ValidWagerNumber(int(n.Int64())) {
			break
		}
		return ResultReady{Player: player, Number: int(n.Int64())}
	case model.KindRandomnessFulfilled:
		field, ok := event.Fields["requestId"]
		if !ok || field.Fallback {
			break
		}
		id, err := hexutil.DecodeBig(trimHexZeros(field.Raw))
		if err != nil {
			break
		}
		word, ok := intField(event, "randomWord")
		if !ok {
			break
		}
		return RandomnessFulfilled{RequestID: id, RandomWord: word}
	}
	return Unknown{Name: event.Name}
}

// SamePlayer compares two hex addresses case-insensitively.
func SamePlayer(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

func addressField(event model.DecodedEvent, name string) (string, bool) {
	field, ok := event.Fields[name]
	if !ok || field.Fallback || field.Address == "" {
		return "", false
	}
	return field.Address, true
}

func intField(event model.DecodedEvent, name string) (*big.Int, bool) {
	field, ok := event.Fields[name]
	if !ok || field.Fallback || field.Int == nil {
		return nil, false
	}
	return new(big.Int).Set(field.Int), true
}

// trimHexZeros strips leading zero digits, which hexutil.DecodeBig rejects.
func trimHexZeros(raw string) string {
	digits := strings.TrimLeft(strings.TrimPrefix(strings.ToLower(raw), "0x"), "0")
	if digits == "" {
		digits = "0"
	}
	return "0x" + digits
}
