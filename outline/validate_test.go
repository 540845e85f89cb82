package outline

import (
	"strings"
	"testing"

	"github.com/elm-tooling/elm-details/engine"
)

func TestValidateAppVersionMismatch(t *testing.T) {
	ro, err := Load(strings.NewReader(appManifest))
	if err != nil {
		t.Fatal(err)
	}
	wrong, _ := engine.NewVersion("0.18.0")
	if _, err := Validate(ro, wrong); err == nil {
		t.Fatal("expected BadElmInAppOutline for a mismatched compiler version")
	}
}

func TestValidateAppOK(t *testing.T) {
	ro, err := Load(strings.NewReader(appManifest))
	if err != nil {
		t.Fatal(err)
	}
	compilerVersion, _ := engine.NewVersion("0.19.1")
	valid, err := Validate(ro, compilerVersion)
	if err != nil {
		t.Fatal(err)
	}
	if valid.Kind != engine.ValidOutlineApp {
		t.Errorf("Kind = %v, want ValidOutlineApp", valid.Kind)
	}
}

func TestValidateAppEmptySourceDirsRejected(t *testing.T) {
	ro, err := Load(strings.NewReader(appManifest))
	if err != nil {
		t.Fatal(err)
	}
	ro.App.SourceDirs = nil
	compilerVersion, _ := engine.NewVersion("0.19.1")
	if _, err := Validate(ro, compilerVersion); err == nil {
		t.Fatal("expected BadOutline for an empty source-directories list")
	}
}

func TestValidatePkgConstraintViolated(t *testing.T) {
	ro, err := Load(strings.NewReader(pkgManifest))
	if err != nil {
		t.Fatal(err)
	}
	tooOld, _ := engine.NewVersion("0.18.0")
	if _, err := Validate(ro, tooOld); err == nil {
		t.Fatal("expected BadElmInPkg for a compiler version outside the constraint")
	}
}

func TestValidatePkgOK(t *testing.T) {
	ro, err := Load(strings.NewReader(pkgManifest))
	if err != nil {
		t.Fatal(err)
	}
	compilerVersion, _ := engine.NewVersion("0.19.1")
	valid, err := Validate(ro, compilerVersion)
	if err != nil {
		t.Fatal(err)
	}
	if len(valid.Exposed) != 2 {
		t.Errorf("Exposed = %v", valid.Exposed)
	}
}
