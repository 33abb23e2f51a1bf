package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/samaj-registry/registry-backend/v1/audit"
	"github.com/samaj-registry/registry-backend/v1/models"
)

var auditCSVHeader = []string{
	"Audit Number",
	"Timestamp",
	"Action",
	"Entity Type",
	"Actor Name",
	"Member",
	"Changes",
}

// WriteAuditCSV projects ledger entries into CSV rows. memberNames maps
// member IDs to display names; resolution is the caller's concern, the
// ledger stores only the reference.
func WriteAuditCSV(w io.Writer, records []models.AuditRecord, memberNames map[string]string) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(auditCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		memberName := ""
		if record.MemberID != nil {
			memberName = memberNames[*record.MemberID]
		}
		row := []string{
			strconv.FormatInt(record.AuditNumber, 10),
			record.Timestamp.UTC().Format(time.RFC3339),
			record.Action,
			record.EntityType,
			derefOrEmpty(record.ActorName),
			memberName,
			FlattenChanges(record.Changes),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FlattenChanges renders a change list as a single human-readable cell,
// e.g. `[head.name: "A" -> "B"]; [familyMembers: added "Sam"]`. The csv
// writer handles quoting of the cell itself; quotes inside values stay as
// written and are escaped by the encoder.
func FlattenChanges(changes audit.ChangeList) string {
	if len(changes) == 0 {
		return ""
	}

	rendered := ""
	for i, change := range changes {
		if i > 0 {
			rendered += "; "
		}
		switch change.Kind {
		case audit.ChangeAdded:
			rendered += fmt.Sprintf("[%s: added %q]", change.Field, formatChangeValue(change.Value))
		case audit.ChangeRemoved:
			rendered += fmt.Sprintf("[%s: removed %q]", change.Field, formatChangeValue(change.Value))
		default:
			rendered += fmt.Sprintf("[%s: %q -> %q]",
				change.Field,
				formatChangeValue(change.Before),
				formatChangeValue(change.After))
		}
	}
	return rendered
}

// formatChangeValue renders a diff value for display. Absent values render
// as an empty string rather than "<nil>".
func formatChangeValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
