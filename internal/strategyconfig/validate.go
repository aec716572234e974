package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	structValidator = newStructValidator()
	hhmmPattern     = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// newStructValidator reports field paths by their yaml names
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks range tags first, then cross-field rules.
// Out-of-range values are rejected, never clamped.
func Validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fromFieldError(fieldErrs[0])
		}
		return err
	}

	// === Meta ===
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}

	// === Signals ===
	m := cfg.Signals.Momentum
	if m.ShiftDays >= m.WindowDays {
		return ValidationError{"signals.momentum.shift_days", fmt.Sprintf("must be < window_days=%d", m.WindowDays)}
	}

	// === Ranking ===
	if err := validateBand(cfg.Ranking.Longs, "ranking.longs"); err != nil {
		return err
	}
	if err := validateBand(cfg.Ranking.Shorts, "ranking.shorts"); err != nil {
		return err
	}
	mr := cfg.Ranking.MeanReversion
	for _, b := range []struct {
		band  Band
		field string
	}{
		{mr.DollarVolume, "ranking.mean_reversion.dollar_volume"},
		{mr.Longs, "ranking.mean_reversion.longs"},
		{mr.Shorts, "ranking.mean_reversion.shorts"},
	} {
		if err := validateBand(b.band, b.field); err != nil {
			return err
		}
	}

	// === Hold ===
	if cfg.Hold.DaysToHold > cfg.Hold.MaxDaysToHold {
		return ValidationError{"hold", "days_to_hold must be <= max_days_to_hold"}
	}

	// === Schedule ===
	if err := validateHHMM(cfg.Schedule.RebalanceTime); err != nil {
		return ValidationError{"schedule.rebalance_time", err.Error()}
	}
	if err := validateHHMM(cfg.Schedule.CancelTime); err != nil {
		return ValidationError{"schedule.cancel_time", err.Error()}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	gross := cfg.Allocation.LongLeverage + math.Abs(cfg.Allocation.ShortLeverage)
	if gross > 1 {
		warnings = append(warnings, Warning{
			Code:    "GROSS_LEVERAGE",
			Message: fmt.Sprintf("gross exposure %.2f exceeds 1.0", gross),
		})
	}

	if cfg.Ranking.Longs.MinPct <= cfg.Ranking.Shorts.MaxPct {
		warnings = append(warnings, Warning{
			Code:    "OVERLAPPING_BANDS",
			Message: "long and short bands overlap; securities in both are dropped",
		})
	}

	if cfg.Universe.PriceFloor.WindowDays > cfg.Signals.Momentum.WindowDays {
		warnings = append(warnings, Warning{
			Code:    "LONG_PRICE_FLOOR",
			Message: "price_floor.window_days exceeds momentum.window_days; new listings wait longer",
		})
	}

	return warnings
}

// === Helper Functions ===

func fromFieldError(fe validator.FieldError) ValidationError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		msg = fmt.Sprintf("must be > %s", fe.Param())
	case "gte":
		msg = fmt.Sprintf("must be >= %s", fe.Param())
	case "lt":
		msg = fmt.Sprintf("must be < %s", fe.Param())
	case "lte":
		msg = fmt.Sprintf("must be <= %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("%s, got %v", msg, fe.Value())}
}

func validateBand(b Band, field string) error {
	if b.MinPct > b.MaxPct {
		return ValidationError{field, fmt.Sprintf("min_pct=%.2f must be <= max_pct=%.2f", b.MinPct, b.MaxPct)}
	}
	return nil
}

func validateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}
