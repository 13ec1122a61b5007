package hidreport

import "fmt"

// Decode samples one raw input report against tree, returning a tree of
// the same collection shape whose leaves are the []Input values read
// out of each Field's report_count run. Output and Feature fields are
// preserved in the shape but always decode to a nil slice: this engine
// only parses Input reports (see SPEC_FULL.md §6).
func Decode(tree *Node[Field], report []byte) (*Node[[]Input], error) {
	fields := Fields(tree)

	hasReportIDs := false
	validIDs := map[uint8]bool{}
	for _, f := range fields {
		if f.ReportID != nil {
			hasReportIDs = true
			validIDs[*f.ReportID] = true
		}
	}

	payload := report
	var activeID uint8
	if hasReportIDs {
		if len(report) < 1 {
			return nil, fmt.Errorf("%w: report id prefix byte missing", ErrReportTooShort)
		}
		activeID = report[0]
		if !validIDs[activeID] {
			return nil, fmt.Errorf("%w: report id %d matches no field", ErrReportIDMismatch, activeID)
		}
		payload = report[1:]
	}

	return MapLeaves(tree, func(f *Field) ([]Input, error) {
		if f.ReportType != ReportInput {
			return nil, nil
		}
		if hasReportIDs && (f.ReportID == nil || *f.ReportID != activeID) {
			// Belongs to a different Report ID than this buffer carries.
			return nil, nil
		}
		return decodeField(f, payload)
	})
}

func decodeField(f *Field, payload []byte) ([]Input, error) {
	if f.IsConstant() {
		return []Input{}, nil
	}

	values := make([]Input, 0, f.ReportCount)
	for i := uint32(0); i < f.ReportCount; i++ {
		bitPos := f.BitOffset + i*f.ReportSize
		raw, err := extractBits(payload, bitPos, f.ReportSize)
		if err != nil {
			return nil, err
		}
		values = append(values, Input{
			Usage: f.usageForIndex(i),
			Value: classify(raw, f),
		})
	}
	return values, nil
}

// classify turns a raw extracted bit pattern into a typed Value per the
// field's logical range: bool when the range is exactly [0,1], unsigned
// when both bounds are non-negative, signed (sign-extended against
// report_size) otherwise. A field declaring a null state (Input flag
// bit 6) reports None when the interpreted value falls outside
// [logical_minimum, logical_maximum].
func classify(raw uint32, f *Field) Value {
	var numeric int64
	var value Value

	switch {
	case f.LogicalMinimum == 0 && f.LogicalMaximum == 1:
		value = BoolValue(raw != 0)
		numeric = int64(raw)
	case f.LogicalMinimum >= 0 && f.LogicalMaximum >= 0:
		value = UIntValue(raw)
		numeric = int64(raw)
	default:
		signed := signExtend(raw, int(f.ReportSize))
		value = IntValue(signed)
		numeric = int64(signed)
	}

	if f.HasNullState() && (numeric < int64(f.LogicalMinimum) || numeric > int64(f.LogicalMaximum)) {
		return NoneValue()
	}
	return value
}
