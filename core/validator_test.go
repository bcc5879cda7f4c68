package core

import (
	"strings"
	"testing"

	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestRequestValidatorFixture(t *testing.T) {
	gunit.Run(new(RequestValidatorFixture), t)
}

type RequestValidatorFixture struct {
	*gunit.Fixture
	validator *RequestValidator
	request   contracts.BuildRequest
}

func (this *RequestValidatorFixture) Setup() {
	this.validator = NewRequestValidator()
	this.request = contracts.BuildRequest{
		TargetURL:    "https://example.com",
		AppName:      "Demo",
		PackageID:    "com.acme.demo",
		TemplatePath: "template.apk",
		OutputPath:   "out.apk",
	}
}

func (this *RequestValidatorFixture) TestWellFormedRequestAccepted() {
	this.So(this.validator.Validate(this.request), should.BeNil)
}

func (this *RequestValidatorFixture) TestURLRequired() {
	this.request.TargetURL = ""
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.ValidationError{})
}

func (this *RequestValidatorFixture) TestURLSchemeMustBeWeb() {
	this.request.TargetURL = "ftp://example.com"
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.ValidationError{})
}

func (this *RequestValidatorFixture) TestAppNameRequired() {
	this.request.AppName = ""
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.ValidationError{})
}

func (this *RequestValidatorFixture) TestAppNameBoundedByPlaceholderCapacity() {
	this.request.AppName = strings.Repeat("x", len(contracts.PlaceholderAppName)+1)
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.InputTooLongError{})

	this.request.AppName = strings.Repeat("x", len(contracts.PlaceholderAppName))
	this.So(this.validator.Validate(this.request), should.BeNil)
}

func (this *RequestValidatorFixture) TestPackageIDShape() {
	for _, malformed := range []string{
		"single",
		"com.Acme.demo",
		"com..demo",
		".com.demo",
		"com.demo.",
		"com.1demo",
		"com.acme demo",
	} {
		this.So(this.validator.Validate(with(this.request, malformed)), should.HaveSameTypeAs, contracts.ValidationError{})
	}
	for _, wellFormed := range []string{"com.acme.demo", "io.acme.demo_2", "a.b"} {
		this.So(this.validator.Validate(with(this.request, wellFormed)), should.BeNil)
	}
}

func (this *RequestValidatorFixture) TestPackageIDBoundedByPlaceholderCapacity() {
	tooLong := "com." + strings.Repeat("a", len(contracts.PlaceholderPackageID))
	this.So(this.validator.Validate(with(this.request, tooLong)), should.HaveSameTypeAs, contracts.InputTooLongError{})
}

func (this *RequestValidatorFixture) TestPathsRequired() {
	this.request.TemplatePath = ""
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.ValidationError{})

	this.request.TemplatePath = "template.apk"
	this.request.OutputPath = ""
	this.So(this.validator.Validate(this.request), should.HaveSameTypeAs, contracts.ValidationError{})
}

/////////////////////////

func with(request contracts.BuildRequest, packageID string) contracts.BuildRequest {
	request.PackageID = packageID
	return request
}
