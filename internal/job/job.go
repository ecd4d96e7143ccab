package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Request is the JSON body accepted by every recipe endpoint. Times are
// seconds, capped at 1e6 so they convert to time.Duration without overflow.
// youtubeUrl, startTime, and duration are accepted as aliases.
type Request struct {
	SourceURL    string   `json:"sourceURL" validate:"required,url"`
	StartOffset  *float64 `json:"startOffset" validate:"required,gte=0,lte=1000000"`
	ClipDuration *float64 `json:"clipDuration" validate:"required,gt=0,lte=1000000"`

	YoutubeURL string   `json:"youtubeUrl,omitempty" validate:"-"`
	StartTime  *float64 `json:"startTime,omitempty" validate:"-"`
	Duration   *float64 `json:"duration,omitempty" validate:"-"`
}

// Job is a validated request with its derived ID.
type Job struct {
	ID           string
	SourceURL    string
	StartOffset  time.Duration
	ClipDuration time.Duration
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a Request from r. Malformed JSON is a ValidationError.
func Decode(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Request{}, &ValidationError{Field: "body", Message: "request body too large"}
		}
		return Request{}, &ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return req, nil
}

// New validates req and builds the Job it describes.
func New(req Request) (Job, error) {
	req = req.withAliases()
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	if err := validate.Struct(req); err != nil {
		return Job{}, validationError(err)
	}
	id, err := ExtractID(req.SourceURL)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:           id,
		SourceURL:    req.SourceURL,
		StartOffset:  seconds(*req.StartOffset),
		ClipDuration: seconds(*req.ClipDuration),
	}, nil
}

func (r Request) withAliases() Request {
	if r.SourceURL == "" {
		r.SourceURL = r.YoutubeURL
	}
	if r.StartOffset == nil {
		r.StartOffset = r.StartTime
	}
	if r.ClipDuration == nil {
		r.ClipDuration = r.Duration
	}
	return r
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describeTag(fe)}
	}
	return &ValidationError{Message: "invalid request"}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

// FormatSeconds renders d as decimal seconds for tool arguments.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
