package ngpack

import (
	"log"
	"time"

	"shanhu.io/misc/errcode"
)

// Stage names, in pipeline order.
const (
	StageSources       = "stage-sources"
	StagePreprocess    = "preprocess-styles"
	StageInline        = "inline-resources"
	StageCompileES5    = "compile-es5"
	StageCompileES2015 = "compile-es2015"
	StageCopyTypings   = "copy-typings"
	StageBundle        = "bundle"
	StagePackageFiles  = "copy-package-files"
	StagePublish       = "publish"
	StagePack          = "pack"
)

type stage struct {
	name string
	run  func(e *env) error
	done string // Logged when the stage succeeds.
}

// StageResult is the outcome of one executed build stage.
type StageResult struct {
	Stage    string
	OK       bool
	Err      error
	Duration time.Duration
}

// runStages runs stages in order and stops at the first failure. It
// returns the results of the stages that ran; the last one is the
// failed stage when err is not nil.
func runStages(e *env, stages []*stage) ([]*StageResult, error) {
	var results []*StageResult
	for _, s := range stages {
		start := time.Now()
		err := s.run(e)
		res := &StageResult{
			Stage:    s.name,
			OK:       err == nil,
			Err:      err,
			Duration: time.Since(start),
		}
		results = append(results, res)
		if err != nil {
			return results, errcode.Annotatef(err, "stage %s", s.name)
		}
		if s.done != "" {
			log.Println(s.done)
		}
	}
	return results, nil
}
