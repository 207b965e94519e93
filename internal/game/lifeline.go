package game

import (
	"fmt"
	"sort"
	"strings"

	"millionaire-service/internal/domain"
)

// Lifeline names a one-time aid.
type Lifeline string

const (
	FiftyFifty   Lifeline = "fifty_fifty"
	AudienceHelp Lifeline = "audience_help"
	FriendCall   Lifeline = "friend_call"
)

// Lifelines lists every lifeline a game offers.
var Lifelines = []Lifeline{FiftyFifty, AudienceHelp, FriendCall}

// ParseLifeline accepts both snake_case and camelCase names.
func ParseLifeline(raw string) (Lifeline, error) {
	switch strings.TrimSpace(raw) {
	case "fifty_fifty", "fiftyFifty":
		return FiftyFifty, nil
	case "audience_help", "audienceHelp":
		return AudienceHelp, nil
	case "friend_call", "friendCall":
		return FriendCall, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownLifeline, raw)
}

// friendAccuracy is the chance, out of 10, that the friend names the right key.
const friendAccuracy = 8

var friendNames = []string{
	"Vasily Petrovich",
	"Aunt Margaret",
	"Professor Ivanova",
	"Your neighbour Oleg",
	"Cousin Mike",
}

// FriendAdvice is the result of a phone call: a friend naming one key.
type FriendAdvice struct {
	Friend string `json:"friend"`
	Key    Key    `json:"key"`
	Text   string `json:"text"`
}

// HelpState holds the outcome of every lifeline used on a question. A nil
// or empty field means that lifeline was not applied.
type HelpState struct {
	FiftyFifty   []Key         `json:"fifty_fifty,omitempty"`
	AudienceHelp map[Key]int   `json:"audience_help,omitempty"`
	FriendCall   *FriendAdvice `json:"friend_call,omitempty"`
}

// Has reports whether l was applied.
func (h HelpState) Has(l Lifeline) bool {
	switch l {
	case FiftyFifty:
		return len(h.FiftyFifty) > 0
	case AudienceHelp:
		return len(h.AudienceHelp) > 0
	case FriendCall:
		return h.FriendCall != nil
	}
	return false
}

// Empty reports whether no lifeline was applied.
func (h HelpState) Empty() bool {
	return !h.Has(FiftyFifty) && !h.Has(AudienceHelp) && !h.Has(FriendCall)
}

// Clone returns a deep copy.
func (h HelpState) Clone() HelpState {
	var cp HelpState
	if h.FiftyFifty != nil {
		cp.FiftyFifty = append([]Key(nil), h.FiftyFifty...)
	}
	if h.AudienceHelp != nil {
		cp.AudienceHelp = make(map[Key]int, len(h.AudienceHelp))
		for k, v := range h.AudienceHelp {
			cp.AudienceHelp[k] = v
		}
	}
	if h.FriendCall != nil {
		advice := *h.FriendCall
		cp.FriendCall = &advice
	}
	return cp
}

// KeysInPlay returns the keys still open after fifty-fifty, or all keys.
func (gq *GameQuestion) KeysInPlay() []Key {
	if gq.Help.Has(FiftyFifty) {
		return append([]Key(nil), gq.Help.FiftyFifty...)
	}
	return append([]Key(nil), Keys[:]...)
}

// Apply runs the named lifeline on the question.
func (gq *GameQuestion) Apply(l Lifeline, rnd Rand) error {
	switch l {
	case FiftyFifty:
		return gq.ApplyFiftyFifty(rnd)
	case AudienceHelp:
		return gq.ApplyAudienceHelp(rnd)
	case FriendCall:
		return gq.ApplyFriendCall(rnd)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownLifeline, l)
}

// ApplyFiftyFifty removes two wrong keys, leaving the correct key and one
// random wrong key.
func (gq *GameQuestion) ApplyFiftyFifty(rnd Rand) error {
	if gq.Help.Has(FiftyFifty) {
		return domain.ErrLifelineUsed
	}
	correct := gq.CorrectKey()
	wrong := keysExcept(Keys[:], correct)
	left := []Key{correct, wrong[rnd.Intn(len(wrong))]}
	sortKeys(left)
	gq.Help.FiftyFifty = left
	return nil
}

// ApplyAudienceHelp records a poll over all four keys summing to 100. Keys
// removed by fifty-fifty get no votes; the correct key is usually favoured.
func (gq *GameQuestion) ApplyAudienceHelp(rnd Rand) error {
	if gq.Help.Has(AudienceHelp) {
		return domain.ErrLifelineUsed
	}
	correct := gq.CorrectKey()
	weights := make(map[Key]int, len(Keys))
	for _, key := range gq.KeysInPlay() {
		weights[key] = 1 + rnd.Intn(30)
	}
	// a confused audience now and then
	if rnd.Intn(10) < 9 {
		weights[correct] += 40 + rnd.Intn(30)
	}
	gq.Help.AudienceHelp = distribute(weights, 100)
	return nil
}

// ApplyFriendCall records a friend's advice naming one key still in play.
func (gq *GameQuestion) ApplyFriendCall(rnd Rand) error {
	if gq.Help.Has(FriendCall) {
		return domain.ErrLifelineUsed
	}
	named := gq.CorrectKey()
	if rnd.Intn(10) >= friendAccuracy {
		if others := keysExcept(gq.KeysInPlay(), named); len(others) > 0 {
			named = others[rnd.Intn(len(others))]
		}
	}
	friend := friendNames[rnd.Intn(len(friendNames))]
	gq.Help.FriendCall = &FriendAdvice{
		Friend: friend,
		Key:    named,
		Text:   fmt.Sprintf("%s thinks the answer is %s", friend, strings.ToUpper(string(named))),
	}
	return nil
}

// distribute scales weights to integer shares summing to total using the
// largest remainder method. Every key in Keys appears in the result.
func distribute(weights map[Key]int, total int) map[Key]int {
	shares := make(map[Key]int, len(Keys))
	sum := 0
	for _, key := range Keys {
		shares[key] = 0
		sum += weights[key]
	}
	if sum == 0 {
		return shares
	}

	type remainder struct {
		key  Key
		frac int
	}
	rest := total
	rems := make([]remainder, 0, len(Keys))
	for _, key := range Keys {
		scaled := weights[key] * total
		shares[key] = scaled / sum
		rest -= shares[key]
		rems = append(rems, remainder{key: key, frac: scaled % sum})
	}
	sort.SliceStable(rems, func(i, j int) bool {
		return rems[i].frac > rems[j].frac
	})
	for i := 0; rest > 0; i++ {
		shares[rems[i%len(rems)].key]++
		rest--
	}
	return shares
}

func keysExcept(keys []Key, skip Key) []Key {
	out := make([]Key, 0, len(keys))
	for _, key := range keys {
		if key != skip {
			out = append(out, key)
		}
	}
	return out
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
