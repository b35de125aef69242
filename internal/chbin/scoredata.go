package chbin

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/chtrack/internal/model"
)

// scoredata.bin layout:
//
//	u32  header (format/version marker, sanity-checked only)
//	u32  chart count
//	per chart:
//	  16B  chart hash
//	  u8   instrument count
//	  u24  play count (shared by every instrument block of the chart)
//	  per instrument (16 bytes):
//	    u16  instrument id
//	    u8   difficulty
//	    u16  completion numerator
//	    u16  completion denominator
//	    u8   stars
//	    4B   opaque field (observed as 1; read, never validated)
//	    u32  score
const (
	scoreInstrumentBlockLen = 16
	scoreChartHeaderLen     = model.ChartIDLen + 1 + 3
)

// DecodeScoreData decodes a complete scoredata.bin buffer into a flat record
// list, one entry per (chart, instrument, difficulty). Decoding is a pure
// function of the input bytes: same buffer in, same records out. Any
// truncation or malformed field fails the whole call; no partial list is
// ever returned.
func DecodeScoreData(buf []byte) ([]model.ScoreRecord, error) {
	cur := NewCursor(buf)

	header, err := cur.ReadU32()
	if err != nil {
		return nil, eris.Wrap(err, "chbin: scoredata header")
	}
	if header == 0 {
		return nil, eris.Errorf("chbin: scoredata header is zero, not a score store")
	}

	chartCount, err := cur.ReadU32()
	if err != nil {
		return nil, eris.Wrap(err, "chbin: scoredata chart count")
	}

	// Cheap up-front bound: even with zero instruments per chart the buffer
	// must hold chartCount chart headers. Catches wildly corrupt counts
	// before the per-chart loop grinds through them.
	if chartCount*scoreChartHeaderLen > cur.Remaining() {
		return nil, eris.Wrapf(ErrTruncated, "chart count %d exceeds buffer", chartCount)
	}

	var records []model.ScoreRecord
	for i := 0; i < chartCount; i++ {
		hash, err := cur.ReadBytes(model.ChartIDLen)
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: chart %d hash", i)
		}
		var chartID model.ChartID
		copy(chartID[:], hash)

		instCount, err := cur.ReadU8()
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: chart %d instrument count", i)
		}
		playCount, err := cur.ReadU24()
		if err != nil {
			return nil, eris.Wrapf(err, "chbin: chart %d play count", i)
		}

		if instCount*scoreInstrumentBlockLen > cur.Remaining() {
			return nil, eris.Wrapf(ErrTruncated, "chart %d declares %d instrument blocks", i, instCount)
		}

		for j := 0; j < instCount; j++ {
			rec, err := decodeInstrumentBlock(cur)
			if err != nil {
				return nil, eris.Wrapf(err, "chbin: chart %d instrument block %d", i, j)
			}
			rec.ChartID = chartID
			rec.PlayCount = playCount
			records = append(records, rec)
		}
	}

	return records, nil
}

func decodeInstrumentBlock(cur *Cursor) (model.ScoreRecord, error) {
	var rec model.ScoreRecord

	inst, err := cur.ReadU16()
	if err != nil {
		return rec, err
	}
	diff, err := cur.ReadU8()
	if err != nil {
		return rec, err
	}
	num, err := cur.ReadU16()
	if err != nil {
		return rec, err
	}
	den, err := cur.ReadU16()
	if err != nil {
		return rec, err
	}
	stars, err := cur.ReadU8()
	if err != nil {
		return rec, err
	}
	// Opaque 4-byte field. Observed as the constant 1 in every store we have
	// seen, but the game may repurpose it, so it is consumed and discarded
	// without validation.
	if err := cur.Skip(4); err != nil {
		return rec, err
	}
	score, err := cur.ReadU32()
	if err != nil {
		return rec, err
	}

	// Instrument ids are open-ended (new game versions add slots) and pass
	// through as-is. Difficulty is a closed enum the game never exceeds, so
	// anything else means the block boundary is wrong.
	rec.Instrument = model.Instrument(inst)
	rec.Difficulty = model.Difficulty(diff)
	if !rec.Difficulty.Valid() {
		return rec, eris.Errorf("chbin: invalid difficulty %d", diff)
	}
	rec.Numerator = num
	rec.Denominator = den
	rec.Stars = stars
	rec.Score = score
	return rec, nil
}
