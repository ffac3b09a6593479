package schedule

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// periodDecision is the resolution record for one period: whether the base row
// requires destination-following, the raw (unformatted) destination, and the
// effective row supplying the subject/teacher label.
type periodDecision struct {
	follow           bool
	rawDestination   string
	effective        *PatternRow
	effectiveClassNo int
}

// shouldFollowDestination reports whether the effective subject row must be
// re-looked-up at the destination class. True for free periods (the home-class
// timetable applies), for any block tied to a student block-classroom field,
// and for rows whose exception token points at the movement classroom.
func shouldFollowDestination(row PatternRow) bool {
	key := NormalizeBlock(row.BlockCode)
	if key == "" {
		return false
	}
	if key == BlockFree {
		return true
	}
	if _, ok := BlockClassroomField(key); ok {
		return true
	}
	return row.ExceptionLocation.String == LocationMove
}

// homeroomText renders the student's home class as a location.
func homeroomText(st Student) string {
	if st.HomeroomLocation.Valid && st.HomeroomLocation.String != "" {
		return st.HomeroomLocation.String
	}
	if st.ClassNo.Valid && st.ClassNo.Int64 != 0 {
		return formatClassLabel(int(st.ClassNo.Int64))
	}
	return HomeroomLabel
}

func formatClassLabel(classNo int) string {
	return strconv.Itoa(classNo) + "반"
}

// resolveExceptionToken maps a stored exception-location token to an actual
// location: the two reserved sentinels resolve against the student; anything
// else is a literal room.
func resolveExceptionToken(token string, st Student) string {
	switch token {
	case LocationHomeroom, HomeroomLabel:
		return homeroomText(st)
	case LocationMove, SelfSelectionLabel, "본인 선택반":
		if st.MoveClassroom.Valid && st.MoveClassroom.String != "" {
			return st.MoveClassroom.String
		}
		return MoveUnsetLabel
	}
	return token
}

// resolveDestinationRaw computes the unformatted destination for a base row.
// 진로2 and 공강 carry fixed overrides so previously uploaded rows keep
// rendering correctly even if the stored exception rules went stale.
func resolveDestinationRaw(st Student, row *PatternRow) string {
	if row == nil {
		return NoScheduleLabel
	}

	switch NormalizeBlock(row.BlockCode) {
	case BlockCareer2:
		if st.MoveClassroom.Valid && st.MoveClassroom.String != "" {
			return st.MoveClassroom.String
		}
		return MoveUnsetLabel
	case BlockFree:
		return homeroomText(st)
	}

	if row.ExceptionLocation.Valid && row.ExceptionLocation.String != "" {
		return resolveExceptionToken(row.ExceptionLocation.String, st)
	}

	if field, ok := BlockClassroomField(row.BlockCode); ok {
		if dest := st.BlockClassroom(field); dest.Valid && dest.String != "" {
			return dest.String
		}
	}

	return homeroomText(st)
}

// formatDestination renders a raw destination for display: pure-digit room
// codes become a class label ("205" -> "2반"), everything else passes through.
func formatDestination(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	if isAllDigits(text) {
		if classNo, ok := ExtractClassNo(text); ok {
			return formatClassLabel(classNo)
		}
	}
	return text
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// displayDestination applies the display rules to the base row's raw
// destination; 동아리 always shows the fixed self-selection label.
func (svc *Service) displayDestination(st Student, base *PatternRow, rawDestination string) string {
	if base != nil && NormalizeBlock(base.BlockCode) == BlockClub {
		return SelfSelectionLabel
	}
	return formatDestination(rawDestination)
}

// ResolveDestination resolves and formats the destination for a single base
// row; exposed for callers that do not need the full seven-period loop.
func (svc *Service) ResolveDestination(st Student, base *PatternRow) string {
	return svc.displayDestination(st, base, resolveDestinationRaw(st, base))
}

// decidePeriod runs the destination-following state machine for one period.
// When following applies and the destination maps to a different class, the
// timetable is re-queried once at that class; a miss falls back to the base
// row silently.
func (svc *Service) decidePeriod(ctx context.Context, st Student, weekday string, period int, base *PatternRow) (periodDecision, error) {
	if base == nil {
		return periodDecision{rawDestination: NoScheduleLabel}, nil
	}

	dec := periodDecision{
		follow:           shouldFollowDestination(*base),
		rawDestination:   resolveDestinationRaw(st, base),
		effective:        base,
		effectiveClassNo: base.ClassNo,
	}
	if !dec.follow {
		return dec, nil
	}

	targetClassNo, ok := ExtractClassNo(dec.rawDestination)
	if !ok || targetClassNo == base.ClassNo {
		return dec, nil
	}

	override, err := svc.repo.GetPattern(ctx, targetClassNo, weekday, period)
	if err != nil {
		if errors.Cause(err) == ErrPatternNotFound {
			return dec, nil // keep the base row
		}
		return periodDecision{}, errors.Wrap(err, "looking up override row")
	}

	dec.effective = &override
	dec.effectiveClassNo = targetClassNo
	return dec, nil
}
