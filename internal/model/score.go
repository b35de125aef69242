package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ChartIDLen is the byte length of a Clone Hero chart hash.
const ChartIDLen = 16

// ChartID is the opaque 16-byte hash identifying one chart. It is only ever
// compared for equality; the bytes have no numeric meaning.
type ChartID [ChartIDLen]byte

// ParseChartID decodes a 32-character hex string into a ChartID.
func ParseChartID(s string) (ChartID, error) {
	var id ChartID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, eris.Wrapf(err, "model: parse chart id %q", s)
	}
	if len(b) != ChartIDLen {
		return id, eris.Errorf("model: chart id %q: want %d bytes, got %d", s, ChartIDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (c ChartID) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalJSON renders the id as its 32-character hex form.
func (c ChartID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ChartID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "model: unmarshal chart id")
	}
	id, err := ParseChartID(s)
	if err != nil {
		return err
	}
	*c = id
	return nil
}

// Instrument is the instrument slot a score was earned on. The domain is
// open-ended: values outside the known set are preserved as-is and render
// with their numeric id.
type Instrument int

const (
	InstrumentLeadGuitar   Instrument = 0
	InstrumentBass         Instrument = 1
	InstrumentRhythm       Instrument = 2
	InstrumentKeys         Instrument = 3
	InstrumentDrums        Instrument = 4
	InstrumentGHLiveGuitar Instrument = 5
	InstrumentGHLiveBass   Instrument = 6
)

var instrumentNames = map[Instrument]string{
	InstrumentLeadGuitar:   "Lead Guitar",
	InstrumentBass:         "Bass",
	InstrumentRhythm:       "Rhythm",
	InstrumentKeys:         "Keys",
	InstrumentDrums:        "Drums",
	InstrumentGHLiveGuitar: "GH Live Guitar",
	InstrumentGHLiveBass:   "GH Live Bass",
}

func (i Instrument) String() string {
	if name, ok := instrumentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Instrument %d", int(i))
}

// Difficulty is the chart difficulty. Unlike Instrument this is a closed
// enum: the game only writes 0 through 3.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 0
	DifficultyMedium Difficulty = 1
	DifficultyHard   Difficulty = 2
	DifficultyExpert Difficulty = 3
)

var difficultyNames = [...]string{"Easy", "Medium", "Hard", "Expert"}

func (d Difficulty) String() string {
	if d >= 0 && int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return fmt.Sprintf("Difficulty %d", int(d))
}

// Valid reports whether d is one of the four difficulties the game writes.
func (d Difficulty) Valid() bool {
	return d >= DifficultyEasy && d <= DifficultyExpert
}

// ScoreRecord is one decoded (chart, instrument, difficulty) result from the
// score store. Numerator/Denominator are the engine's completion-ratio pair;
// the pair is explicitly NOT a notes-hit/notes-total count and must not be
// presented as one.
type ScoreRecord struct {
	ChartID     ChartID    `json:"chart_id"`
	Instrument  Instrument `json:"instrument"`
	Difficulty  Difficulty `json:"difficulty"`
	Numerator   int        `json:"numerator"`
	Denominator int        `json:"denominator"`
	Stars       int        `json:"stars"`
	Score       int        `json:"score"`
	PlayCount   int        `json:"play_count"` // per chart, shared across instruments
}

// Key returns the composite identity of this record.
func (r ScoreRecord) Key() ScoreKey {
	return ScoreKey{Chart: r.ChartID, Instrument: r.Instrument, Difficulty: r.Difficulty}
}

// ScoreKey identifies one tracked score slot.
type ScoreKey struct {
	Chart      ChartID
	Instrument Instrument
	Difficulty Difficulty
}

// String renders the key in the "hash:instrument:difficulty" form used by the
// persisted state file.
func (k ScoreKey) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Chart, int(k.Instrument), int(k.Difficulty))
}

// ParseScoreKey parses the persisted "hash:instrument:difficulty" form.
func ParseScoreKey(s string) (ScoreKey, error) {
	var key ScoreKey
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return key, eris.Errorf("model: score key %q: want 3 segments, got %d", s, len(parts))
	}
	chart, err := ParseChartID(parts[0])
	if err != nil {
		return key, err
	}
	inst, err := strconv.Atoi(parts[1])
	if err != nil {
		return key, eris.Wrapf(err, "model: score key %q: instrument", s)
	}
	diff, err := strconv.Atoi(parts[2])
	if err != nil {
		return key, eris.Wrapf(err, "model: score key %q: difficulty", s)
	}
	key.Chart = chart
	key.Instrument = Instrument(inst)
	key.Difficulty = Difficulty(diff)
	return key, nil
}
