package main

import (
	"fmt"
	"strings"

	"github.com/jbowen42/gohid/hidreport"
)

func formatUsage(u hidreport.Usage) string {
	return fmt.Sprintf("%#04x:%#04x", u.Page, u.ID)
}

func formatField(f *hidreport.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s size=%-3d count=%-3d range=[%d,%d]", f.ReportType, f.ReportSize, f.ReportCount, f.LogicalMinimum, f.LogicalMaximum)
	if f.ReportID != nil {
		fmt.Fprintf(&b, " report_id=%d", *f.ReportID)
	}
	if f.IsConstant() {
		b.WriteString(" const")
	}
	if f.HasNullState() {
		b.WriteString(" null-state")
	}
	switch {
	case len(f.Usages) > 0:
		usages := make([]string, len(f.Usages))
		for i, u := range f.Usages {
			usages[i] = formatUsage(u)
		}
		fmt.Fprintf(&b, " usages=[%s]", strings.Join(usages, ","))
	case f.UsageMinimum != nil && f.UsageMaximum != nil:
		fmt.Fprintf(&b, " usage_range=[%s..%s]", formatUsage(*f.UsageMinimum), formatUsage(*f.UsageMaximum))
	case f.UsageMinimum != nil:
		fmt.Fprintf(&b, " usage_min=%s", formatUsage(*f.UsageMinimum))
	}
	return b.String()
}

func formatValue(v hidreport.Value) string {
	switch v.Kind {
	case hidreport.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case hidreport.ValueUInt:
		return fmt.Sprintf("%d", v.UInt)
	case hidreport.ValueInt:
		return fmt.Sprintf("%d", v.Int)
	default:
		return "none"
	}
}

func formatInput(in hidreport.Input) string {
	return fmt.Sprintf("%s=%s", formatUsage(in.Usage), formatValue(in.Value))
}
