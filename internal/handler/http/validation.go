package http

import (
	"regexp"

	playground "github.com/go-playground/validator/v10"

	"github.com/vitorbastosbn/nutricionista/pkg/validator"
)

var (
	brPhonePattern = regexp.MustCompile(`^\(?\d{2}\)?\s?\d{4,5}-?\d{4}$`)
	brZipPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
)

var brStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {}, "ES": {}, "GO": {},
	"MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {}, "PB": {}, "PR": {}, "PE": {}, "PI": {},
	"RJ": {}, "RN": {}, "RS": {}, "RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

func init() {
	mustRegister("br_phone", func(fl playground.FieldLevel) bool {
		return brPhonePattern.MatchString(fl.Field().String())
	}, "must be a phone number like (11) 91234-5678")
	mustRegister("br_zip", func(fl playground.FieldLevel) bool {
		return brZipPattern.MatchString(fl.Field().String())
	}, "must be a CEP like 01310-100")
	mustRegister("br_uf", func(fl playground.FieldLevel) bool {
		_, ok := brStates[fl.Field().String()]
		return ok
	}, "must be a Brazilian state code")
}

func mustRegister(tag string, fn playground.Func, message string) {
	if err := validator.RegisterValidation(tag, fn, message); err != nil {
		panic(err)
	}
}
