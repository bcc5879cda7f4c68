package core

import (
	"net/url"
	"regexp"
	"unicode/utf8"

	"github.com/smarty/webapk/contracts"
)

var packageIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// RequestValidator rejects bad input before any file is touched. Length
// violations surface as InputTooLongError so the caller knows re-prompting
// for shorter input will succeed.
type RequestValidator struct{}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{}
}

func (this *RequestValidator) Validate(request contracts.BuildRequest) error {
	err := this.validateURL(request.TargetURL)
	if err != nil {
		return err
	}
	err = this.validateAppName(request.AppName)
	if err != nil {
		return err
	}
	err = this.validatePackageID(request.PackageID)
	if err != nil {
		return err
	}
	if request.TemplatePath == "" {
		return contracts.ValidationError{Field: "template path", Reason: "must not be empty"}
	}
	if request.OutputPath == "" {
		return contracts.ValidationError{Field: "output path", Reason: "must not be empty"}
	}
	return nil
}

func (this *RequestValidator) validateURL(target string) error {
	if target == "" {
		return contracts.ValidationError{Field: "url", Reason: "must not be empty"}
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return contracts.ValidationError{Field: "url", Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return contracts.ValidationError{Field: "url", Reason: "scheme must be http or https"}
	}
	return nil
}

func (this *RequestValidator) validateAppName(name string) error {
	if name == "" {
		return contracts.ValidationError{Field: "app name", Reason: "must not be empty"}
	}
	limit := utf8.RuneCountInString(contracts.PlaceholderAppName)
	if utf8.RuneCountInString(name) > limit {
		return contracts.InputTooLongError{Field: "app name", Value: name, Limit: limit}
	}
	return nil
}

func (this *RequestValidator) validatePackageID(id string) error {
	if id == "" {
		return contracts.ValidationError{Field: "package id", Reason: "must not be empty"}
	}
	if !packageIDPattern.MatchString(id) {
		return contracts.ValidationError{
			Field:  "package id",
			Reason: "must be two or more dotted lowercase segments",
		}
	}
	limit := utf8.RuneCountInString(contracts.PlaceholderPackageID)
	if utf8.RuneCountInString(id) > limit {
		return contracts.InputTooLongError{Field: "package id", Value: id, Limit: limit}
	}
	return nil
}
