package casino

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"vrfRoulette/internal/model"
)

// Field describes one event input in declaration order.
type Field struct {
	Name         string
	SolidityType string
	Indexed      bool

	typ abi.Type
}

// WagerSignature is a registered event shape keyed by its topic hash.
type WagerSignature struct {
	TopicHash common.Hash
	Name      string
	Kind      model.EventKind
	Fields    []Field
}

// RegistryConfig configures the signature registry.
type RegistryConfig struct {
	// Topic0Map maps additional topic0 hashes onto known event names.
	Topic0Map map[string]string
}

// Registry is an immutable lookup of known casino events.
type Registry struct {
	byTopic map[string]WagerSignature
	byKind  map[model.EventKind]WagerSignature
}

var eventKinds = map[string]model.EventKind{
	EventPlayRequested:  model.KindRequestInitiated,
	EventPlayResult:     model.KindResultReady,
	EventRequestFulfill: model.KindRandomnessFulfilled,
}

// NewRegistry builds the registry from the casino ABI.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	casinoABI, err := CasinoABI()
	if err != nil {
		return nil, fmt.Errorf("parse casino abi: %w", err)
	}

	r := &Registry{
		byTopic: make(map[string]WagerSignature, len(eventKinds)),
		byKind:  make(map[model.EventKind]WagerSignature, len(eventKinds)),
	}
	byName := make(map[string]WagerSignature, len(eventKinds))
	for name, kind := range eventKinds {
		event, ok := casinoABI.Events[name]
		if !ok {
			return nil, fmt.Errorf("casino abi missing event %s", name)
		}
		sig := signatureFromEvent(event, kind)
		r.byTopic[topicKey(sig.TopicHash.Hex())] = sig
		r.byKind[kind] = sig
		byName[strings.ToLower(name)] = sig
	}

	for topic0, name := range cfg.Topic0Map {
		sig, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", name)
		}
		if topic0 == "" {
			continue
		}
		r.byTopic[topicKey(topic0)] = sig
	}

	return r, nil
}

func signatureFromEvent(event abi.Event, kind model.EventKind) WagerSignature {
	fields := make([]Field, 0, len(event.Inputs))
	for _, arg := range event.Inputs {
		fields = append(fields, Field{
			Name:         arg.Name,
			SolidityType: arg.Type.String(),
			Indexed:      arg.Indexed,
			typ:          arg.Type,
		})
	}
	return WagerSignature{
		TopicHash: event.ID,
		Name:      event.Name,
		Kind:      kind,
		Fields:    fields,
	}
}

// Lookup returns the signature registered for topic0.
func (r *Registry) Lookup(topic0 string) (WagerSignature, bool) {
	if r == nil || topic0 == "" {
		return WagerSignature{}, false
	}
	sig, ok := r.byTopic[topicKey(topic0)]
	return sig, ok
}

// CanDecode checks if the topic0 is registered.
func (r *Registry) CanDecode(topic0 string) bool {
	_, ok := r.Lookup(topic0)
	return ok
}

// Signature returns the canonical signature for an event kind.
func (r *Registry) Signature(kind model.EventKind) (WagerSignature, bool) {
	if r == nil {
		return WagerSignature{}, false
	}
	sig, ok := r.byKind[kind]
	return sig, ok
}

// Topics lists every registered topic hash, sorted.
func (r *Registry) Topics() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.byTopic))
	for topic := range r.byTopic {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

func topicKey(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
