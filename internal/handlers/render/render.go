package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const InvalidRequestMessage = "invalid request fields"

var validate = validator.New()

func init() {
	// Return on 'TagName' json tag instead of struct name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		// skip if tag key says it should be ignored
		if name == "-" {
			return ""
		}
		return name
	})
}

type Struct any

// Every error is rendered with this body
type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

// JSONWithCache allows shared caches to keep response for maxAge
func JSONWithCache(w http.ResponseWriter, data any, maxAge time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	jsonWithStatus(w, data, http.StatusOK)
}

func Error(w http.ResponseWriter, message string, code int) {
	jsonWithStatus(w, ErrorResponse{Message: message}, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		Error(w, InvalidRequestMessage+": "+typeErr.Field, http.StatusBadRequest)
		return
	}

	Error(w, InvalidRequestMessage, http.StatusBadRequest)
}

// Render ValidationErrors. Message lists invalid fields sorted, e.g. "invalid request fields: email, stamps[0].id"
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make([]string, 0, len(errs))
	for _, fieldError := range errs {
		// Namespace is "<Struct>.<json path>", struct name is dropped
		path := fieldError.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fields = append(fields, path)
	}
	slices.Sort(fields)
	fields = slices.Compact(fields)

	Error(w, InvalidRequestMessage+": "+strings.Join(fields, ", "), http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			Error(w, InvalidRequestMessage, http.StatusBadRequest)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// Body sent when data could not be encoded. Encoding error is never exposed
const encodeFailedBody = `{"message":"internal server error"}` + "\n"

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		buf.Reset()
		buf.WriteString(encodeFailedBody)
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
