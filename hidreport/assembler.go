package hidreport

import (
	"fmt"
	"io"
)

// collectionBuilder is the mutable, in-progress counterpart of
// CollectionNode while the stack is open; it is frozen into a
// CollectionNode (and wrapped in a Node) when its Collection item is
// closed.
type collectionBuilder struct {
	typ             CollectionType
	usage           Usage
	designatorIndex *uint32
	stringIndex     *uint32
	children        []*Node[Field]
}

func (b *collectionBuilder) freeze() *Node[Field] {
	return &Node[Field]{Collection: &CollectionNode[Field]{
		Type:            b.typ,
		Usage:           b.usage,
		DesignatorIndex: b.designatorIndex,
		StringIndex:     b.stringIndex,
		Children:        b.children,
	}}
}

// assembler is the stateful HID item machine: it folds a stream of
// tokenized items into a single collection tree, tracking Global state
// (persists across Main items), Local state (clears after every Main
// item) and the open-collection stack.
type assembler struct {
	global globalTable
	local  *localTable
	stack  []*collectionBuilder

	// Each report type/ID combination is an independent report buffer
	// with its own bit offsets starting at 0 (see DESIGN.md's Open
	// Question decisions on bit_offset lifetime: resetting
	// per (kind, ReportID) rather than threading one global counter is
	// what lets descriptors that interleave multiple Report IDs, or
	// that mix Input/Output/Feature items, decode correctly).
	inputOffsets   map[int]uint32
	outputOffsets  map[int]uint32
	featureOffsets map[int]uint32
}

// noReportID is the offset-table key used when a Field has no Global
// ReportID in effect.
const noReportID = -1

func newAssembler() *assembler {
	return &assembler{
		local:          newLocalTable(),
		inputOffsets:   map[int]uint32{},
		outputOffsets:  map[int]uint32{},
		featureOffsets: map[int]uint32{},
	}
}

// ParseDescriptor tokenizes and assembles a full report descriptor into
// its collection tree. The root of the returned tree is the outermost
// collection the descriptor opens; its collection type is not checked.
func ParseDescriptor(data []byte) (*Node[Field], error) {
	a := newAssembler()
	tok := NewTokenizer(data)
	for {
		item, err := tok.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := a.process(item); err != nil {
			return nil, err
		}
	}
	if len(a.stack) != 1 {
		return nil, fmt.Errorf("hidreport: %d collections still open at end of descriptor: %w", len(a.stack), ErrUnbalancedCollections)
	}
	return a.stack[0].freeze(), nil
}

func (a *assembler) process(item Item) error {
	switch item.Class {
	case ClassGlobal:
		return a.processGlobal(item)
	case ClassLocal:
		return a.processLocal(item)
	case ClassMain:
		return a.processMain(item)
	default:
		return nil // Reserved, ignored.
	}
}

func (a *assembler) processGlobal(item Item) error {
	width := item.Size * 8
	switch item.Tag {
	case globalTagUsagePage:
		v := uint16(item.Data)
		a.global.usagePage = &v
	case globalTagLogicalMinimum:
		v := signExtend(item.Data, width)
		a.global.logicalMinimum = &v
	case globalTagLogicalMaximum:
		v := signExtend(item.Data, width)
		a.global.logicalMaximum = &v
	case globalTagPhysicalMinimum:
		v := signExtend(item.Data, width)
		a.global.physicalMinimum = &v
	case globalTagPhysicalMaximum:
		v := signExtend(item.Data, width)
		a.global.physicalMaximum = &v
	case globalTagUnitExponent:
		v := item.Data
		a.global.unitExponent = &v
	case globalTagUnit:
		v := item.Data
		a.global.unit = &v
	case globalTagReportSize:
		v := item.Data
		a.global.reportSize = &v
	case globalTagReportID:
		v := uint8(item.Data)
		a.global.reportID = &v
	case globalTagReportCount:
		v := item.Data
		a.global.reportCount = &v
	case globalTagPush, globalTagPop:
		return fmt.Errorf("hidreport: Global Push/Pop: %w", ErrUnsupportedFeature)
	default:
		// Reserved global tag, ignored.
	}
	return nil
}

func (a *assembler) processLocal(item Item) error {
	switch item.Tag {
	case localTagUsage:
		a.local.usages = append(a.local.usages, buildLocalUsage(item))
	case localTagUsageMinimum:
		u := buildLocalUsage(item)
		a.local.usageMinimum = &u
	case localTagUsageMaximum:
		u := buildLocalUsage(item)
		a.local.usageMaximum = &u
	case localTagDesignatorIndex:
		v := item.Data
		a.local.designatorIndex = &v
	case localTagDesignatorMinimum:
		v := item.Data
		a.local.designatorMinimum = &v
	case localTagDesignatorMaximum:
		v := item.Data
		a.local.designatorMaximum = &v
	case localTagStringIndex:
		v := item.Data
		a.local.stringIndex = &v
	case localTagStringMinimum:
		v := item.Data
		a.local.stringMinimum = &v
	case localTagStringMaximum:
		v := item.Data
		a.local.stringMaximum = &v
	case localTagDelimiter:
		return fmt.Errorf("hidreport: Local Delimiter: %w", ErrUnsupportedFeature)
	default:
		// Reserved local tag, ignored.
	}
	return nil
}

// Main item tags (HID 1.11 §6.2.2.4 Table 5).
const (
	mainTagInput         = 0b1000
	mainTagOutput        = 0b1001
	mainTagCollection    = 0b1010
	mainTagFeature       = 0b1011
	mainTagEndCollection = 0b1100
)

func (a *assembler) processMain(item Item) error {
	var err error
	switch item.Tag {
	case mainTagCollection:
		err = a.openCollection(item)
	case mainTagEndCollection:
		err = a.closeCollection()
	case mainTagInput:
		err = a.freezeField(ReportInput, item)
	case mainTagOutput:
		err = a.freezeField(ReportOutput, item)
	case mainTagFeature:
		err = a.freezeField(ReportFeature, item)
	default:
		// Main/Reserved: no coherent semantics, skip without advancing
		// any bit offset.
	}
	// Local state clears after every Main item regardless of its kind
	// or whether it errored on qualification.
	a.local = newLocalTable()
	return err
}

func (a *assembler) openCollection(item Item) error {
	if len(a.local.usages) != 1 {
		return fmt.Errorf("hidreport: Collection has %d local usages, want exactly 1: %w", len(a.local.usages), ErrMalformedUsage)
	}
	usage, err := qualifyUsage(a.global.usagePage, a.local.usages[0])
	if err != nil {
		return err
	}
	a.stack = append(a.stack, &collectionBuilder{
		typ:             collectionTypeFromByte(uint8(item.Data)),
		usage:           usage,
		designatorIndex: a.local.designatorIndex,
		stringIndex:     a.local.stringIndex,
	})
	return nil
}

func (a *assembler) closeCollection() error {
	switch len(a.stack) {
	case 0:
		return fmt.Errorf("hidreport: EndCollection with no open collection: %w", ErrUnbalancedCollections)
	case 1:
		// The outermost collection is never popped off the stack; it
		// stays there as the tree's eventual root.
		return nil
	default:
		closed := a.stack[len(a.stack)-1]
		a.stack = a.stack[:len(a.stack)-1]
		parent := a.stack[len(a.stack)-1]
		parent.children = append(parent.children, closed.freeze())
		return nil
	}
}

func (a *assembler) freezeField(kind ReportKind, item Item) error {
	if len(a.stack) == 0 {
		return fmt.Errorf("hidreport: %v item outside any collection: %w", kind, ErrUnbalancedCollections)
	}
	if a.global.reportSize == nil {
		return missingGlobal("report_size")
	}
	if a.global.reportCount == nil {
		return missingGlobal("report_count")
	}
	if a.global.logicalMinimum == nil {
		return missingGlobal("logical_minimum")
	}
	if a.global.logicalMaximum == nil {
		return missingGlobal("logical_maximum")
	}

	field := Field{
		ReportType:      kind,
		Flags:           item.Data,
		LogicalMinimum:  *a.global.logicalMinimum,
		LogicalMaximum:  *a.global.logicalMaximum,
		UnitExponent:    a.global.unitExponent,
		Unit:            a.global.unit,
		DesignatorIndex: a.local.designatorIndex,
		StringIndex:     a.local.stringIndex,
		ReportID:        a.global.reportID,
		ReportSize:      *a.global.reportSize,
		ReportCount:     *a.global.reportCount,
	}

	// A defect in the original implementation defaulted
	// physical_maximum to physical_minimum instead of to
	// logical_maximum; both physical bounds default to their logical
	// counterpart independently.
	if a.global.physicalMinimum != nil {
		field.PhysicalMinimum = *a.global.physicalMinimum
	} else {
		field.PhysicalMinimum = field.LogicalMinimum
	}
	if a.global.physicalMaximum != nil {
		field.PhysicalMaximum = *a.global.physicalMaximum
	} else {
		field.PhysicalMaximum = field.LogicalMaximum
	}

	for _, u := range a.local.usages {
		qualified, err := qualifyUsage(a.global.usagePage, u)
		if err != nil {
			return err
		}
		field.Usages = append(field.Usages, qualified)
	}
	if a.local.usageMinimum != nil {
		qualified, err := qualifyUsage(a.global.usagePage, *a.local.usageMinimum)
		if err != nil {
			return err
		}
		field.UsageMinimum = &qualified
	}
	if a.local.usageMaximum != nil {
		qualified, err := qualifyUsage(a.global.usagePage, *a.local.usageMaximum)
		if err != nil {
			return err
		}
		field.UsageMaximum = &qualified
	}

	offsets := a.offsetTableFor(kind)
	key := noReportID
	if a.global.reportID != nil {
		key = int(*a.global.reportID)
	}
	field.BitOffset = offsets[key]
	offsets[key] = field.BitOffset + field.ReportSize*field.ReportCount

	top := a.stack[len(a.stack)-1]
	top.children = append(top.children, leafNode(field))
	return nil
}

func (a *assembler) offsetTableFor(kind ReportKind) map[int]uint32 {
	switch kind {
	case ReportOutput:
		return a.outputOffsets
	case ReportFeature:
		return a.featureOffsets
	default:
		return a.inputOffsets
	}
}
