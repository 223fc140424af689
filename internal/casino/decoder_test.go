package casino

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"vrfRoulette/internal/model"
)

var testPlayer = common.HexToAddress("0x2222222222222222222222222222222222222222")

func TestDecodePlayResult(t *testing.T) {
	casinoABI, err := CasinoABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	registry := newTestRegistry(t)

	data, err := casinoABI.Events[EventPlayResult].Inputs.NonIndexed().Pack(uint8(17))
	if err != nil {
		t.Fatalf("pack result: %v", err)
	}
	record := buildRawLog(casinoABI.Events[EventPlayResult].ID, data, topicFromAddress(testPlayer))

	event := Decode(record, registry)
	if event.Name != EventPlayResult || event.Kind != model.KindResultReady {
		t.Fatalf("name mismatch: %+v", event)
	}

	player := event.Fields["player"]
	if player.Address != strings.ToLower(testPlayer.Hex()) {
		t.Fatalf("player mismatch: %s", player.Address)
	}
	if len(player.Address) != 42 || !strings.HasPrefix(player.Address, "0x") {
		t.Fatalf("player format: %s", player.Address)
	}

	number := event.Fields[DrawnNumberField]
	if number.Int == nil || number.Int.Int64() != 17 {
		t.Fatalf("number mismatch: %+v", number)
	}
	if !reflect.DeepEqual(event.Fields[DrawnNumberAlias], number) {
		t.Fatalf("alias mismatch: %+v != %+v", event.Fields[DrawnNumberAlias], number)
	}

	typed, ok := Typed(event).(ResultReady)
	if !ok {
		t.Fatalf("typed mismatch: %T", Typed(event))
	}
	if typed.Number != 17 || !SamePlayer(typed.Player, testPlayer.Hex()) {
		t.Fatalf("typed result mismatch: %+v", typed)
	}
}

func TestDecodePlayRequestedAndFulfilled(t *testing.T) {
	casinoABI, err := CasinoABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	registry := newTestRegistry(t)

	requestID, _ := new(big.Int).SetString("81234567890123456789", 10)
	data, err := casinoABI.Events[EventPlayRequested].Inputs.NonIndexed().Pack(requestID)
	if err != nil {
		t.Fatalf("pack request: %v", err)
	}
	requested := Decode(buildRawLog(casinoABI.Events[EventPlayRequested].ID, data, topicFromAddress(testPlayer)), registry)

	initiated, ok := Typed(requested).(RequestInitiated)
	if !ok {
		t.Fatalf("typed mismatch: %T", Typed(requested))
	}
	if initiated.RequestID.Cmp(requestID) != 0 {
		t.Fatalf("request id mismatch: %s", initiated.RequestID)
	}
	if _, ok := requested.Fields[DrawnNumberAlias]; ok {
		t.Fatalf("alias should only exist for the drawn number")
	}

	word := big.NewInt(987654321)
	data, err = casinoABI.Events[EventRequestFulfill].Inputs.NonIndexed().Pack(word)
	if err != nil {
		t.Fatalf("pack fulfill: %v", err)
	}
	fulfilled := Decode(buildRawLog(casinoABI.Events[EventRequestFulfill].ID, data, common.BigToHash(requestID)), registry)

	typed, ok := Typed(fulfilled).(RandomnessFulfilled)
	if !ok {
		t.Fatalf("typed mismatch: %T", Typed(fulfilled))
	}
	if typed.RequestID.Cmp(requestID) != 0 || typed.RandomWord.Cmp(word) != 0 {
		t.Fatalf("fulfilled mismatch: %+v", typed)
	}
	if fulfilled.Fields["requestId"].Raw != common.BigToHash(requestID).Hex() {
		t.Fatalf("indexed non-address should keep raw topic")
	}
}

func TestDecodeUnknown(t *testing.T) {
	registry := newTestRegistry(t)

	cases := []model.RawLogRecord{
		{},
		{Topics: []string{}},
		{Topics: []string{common.HexToHash("0x1234").Hex()}, Data: "0x01"},
		{Topics: []string{"not-hex"}},
	}
	for _, record := range cases {
		event := Decode(record, registry)
		if !reflect.DeepEqual(event, model.UnknownEvent()) {
			t.Fatalf("expected unknown for %+v, got %+v", record, event)
		}
		if _, ok := Typed(event).(Unknown); !ok {
			t.Fatalf("typed should be unknown")
		}
	}
}

func TestDecodeFallbackPerField(t *testing.T) {
	casinoABI, err := CasinoABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	registry := newTestRegistry(t)

	record := buildRawLog(casinoABI.Events[EventPlayResult].ID, nil, topicFromAddress(testPlayer))
	record.Data = "0xzz"

	event := Decode(record, registry)
	if event.Name != EventPlayResult {
		t.Fatalf("name mismatch: %s", event.Name)
	}
	if event.Fields["player"].Fallback || event.Fields["player"].Address == "" {
		t.Fatalf("player should decode: %+v", event.Fields["player"])
	}
	number := event.Fields[DrawnNumberField]
	if !number.Fallback || number.Raw != "0xzz" || number.Int != nil {
		t.Fatalf("number should fall back to raw: %+v", number)
	}
	if _, ok := Typed(event).(Unknown); !ok {
		t.Fatalf("fallback result should not type as ResultReady")
	}

	short := buildRawLog(casinoABI.Events[EventPlayResult].ID, []byte{0x05})
	event = Decode(short, registry)
	if !event.Fields["player"].Fallback {
		t.Fatalf("missing topic should fall back: %+v", event.Fields["player"])
	}
	if event.Fields[DrawnNumberField].Int.Int64() != 5 {
		t.Fatalf("number mismatch: %+v", event.Fields[DrawnNumberField])
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	casinoABI, err := CasinoABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	registry := newTestRegistry(t)

	data, err := casinoABI.Events[EventPlayResult].Inputs.NonIndexed().Pack(uint8(4))
	if err != nil {
		t.Fatalf("pack result: %v", err)
	}
	record := buildRawLog(casinoABI.Events[EventPlayResult].ID, data, topicFromAddress(testPlayer))

	first := Decode(record, registry)
	second := Decode(record, registry)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decode not deterministic: %+v != %+v", first, second)
	}
}

func TestResultOutsideWheelIsUnknown(t *testing.T) {
	casinoABI, err := CasinoABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	registry := newTestRegistry(t)

	data, err := casinoABI.Events[EventPlayResult].Inputs.NonIndexed().Pack(uint8(37))
	if err != nil {
		t.Fatalf("pack result: %v", err)
	}
	event := Decode(buildRawLog(casinoABI.Events[EventPlayResult].ID, data, topicFromAddress(testPlayer)), registry)
	if _, ok := Typed(event).(Unknown); !ok {
		t.Fatalf("number 37 should not type as a result")
	}
}

func TestRegistryTopic0Map(t *testing.T) {
	alias := common.HexToHash("0xabcdef").Hex()
	registry, err := NewRegistry(RegistryConfig{Topic0Map: map[string]string{alias: "playresult"}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	sig, ok := registry.Lookup(strings.ToUpper(alias[2:]))
	if ok {
		t.Fatalf("lookup without 0x prefix should miss, got %+v", sig)
	}
	sig, ok = registry.Lookup(alias)
	if !ok || sig.Name != EventPlayResult {
		t.Fatalf("alias lookup mismatch: %+v", sig)
	}
	if len(registry.Topics()) != 4 {
		t.Fatalf("topics mismatch: %v", registry.Topics())
	}

	if _, err := NewRegistry(RegistryConfig{Topic0Map: map[string]string{alias: "Swap"}}); err == nil {
		t.Fatalf("expected error for unknown event name")
	}
}

func TestOrdering(t *testing.T) {
	records := []model.RawLogRecord{
		{BlockNumber: 101, LogIndex: 2, TxHash: "0xb"},
		{BlockNumber: 105, LogIndex: 0, TxHash: "0xd"},
		{BlockNumber: 101, LogIndex: 7, TxHash: "0xc"},
		{BlockNumber: 100, LogIndex: 9, TxHash: "0xa"},
	}

	sorted := SortNewestFirst(records)
	var got []string
	for _, record := range sorted {
		got = append(got, record.TxHash)
	}
	if !reflect.DeepEqual(got, []string{"0xd", "0xc", "0xb", "0xa"}) {
		t.Fatalf("order mismatch: %v", got)
	}
	if records[0].TxHash != "0xb" {
		t.Fatalf("input should not be reordered")
	}

	latest, ok := Latest(records)
	if !ok || latest.TxHash != "0xd" {
		t.Fatalf("latest mismatch: %+v", latest)
	}
	latestSorted, _ := Latest(sorted)
	if latestSorted.TxHash != latest.TxHash {
		t.Fatalf("latest should not depend on input order")
	}
	if _, ok := Latest(nil); ok {
		t.Fatalf("latest of empty should be false")
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func buildRawLog(topic0 common.Hash, data []byte, indexed ...common.Hash) model.RawLogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.RawLogRecord{
		ChainID:     11155111,
		Address:     "0xb4bcbe5fb9117683c58549c4669894b6f38b11f0",
		Topics:      topics,
		Data:        hexutil.Encode(data),
		BlockNumber: 12345,
		TxHash:      "0xdef",
		LogIndex:    1,
		Timestamp:   1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
