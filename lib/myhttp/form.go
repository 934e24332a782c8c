package myhttp

import (
	"fmt"
	"net/http"

	formcodec "github.com/go-playground/form/v4"

	"github.com/MarcGrol/picoteo/lib/myerrors"
)

// decoder caches struct metadata, so it is shared
var decoder = formcodec.NewDecoder()

// DecodeForm decodes query and form-encoded body parameters into dest using its `form` tags.
func DecodeForm(r *http.Request, dest any) error {
	err := r.ParseForm()
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err))
	}

	err = decoder.Decode(dest, r.Form)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return nil
}
