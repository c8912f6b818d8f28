package feedback

import (
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/sahajlabs/mudra/internal/domain/model"
)

func TestNewComposer(t *testing.T) {
	Convey("Given the composer constructor", t, func() {
		Convey("The default catalog is complete", func() {
			c, err := NewComposer()
			So(err, ShouldBeNil)
			So(c, ShouldNotBeNil)
			So(c.Supports("en"), ShouldBeTrue)
			So(c.Supports("hi"), ShouldBeTrue)
			So(c.Supports("fr"), ShouldBeFalse)
		})

		Convey("A language missing a key fails at construction", func() {
			_, err := NewComposer(WithCatalogEntries(map[string]map[string]string{
				"ta": {keyPositive: "நன்றாக செய்தீர்கள்"},
			}))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ta")
		})

		Convey("An unknown secondary language fails at construction", func() {
			_, err := NewComposer(WithSecondaryLanguage("fr"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCompose(t *testing.T) {
	Convey("Given a composer with default catalog", t, func() {
		c, err := NewComposer()
		So(err, ShouldBeNil)

		Convey("A correct result yields positive feedback with no instructions", func() {
			fb, err := c.Compose(model.ValidationResult{Correct: true, Confidence: 0.95}, "en")
			So(err, ShouldBeNil)
			So(fb.Kind, ShouldEqual, model.FeedbackPositive)
			So(fb.Text, ShouldNotBeEmpty)
			So(fb.TextAlt, ShouldNotBeEmpty)
			So(fb.Instructions, ShouldBeEmpty)
		})

		Convey("Hindi target gets English parallel text", func() {
			fb, err := c.Compose(model.ValidationResult{Correct: true, Confidence: 0.95}, "hi")
			So(err, ShouldBeNil)
			So(fb.Text, ShouldContainSubstring, "बढ़िया")
			So(fb.TextAlt, ShouldContainSubstring, "Well done")
		})

		Convey("English target gets the secondary language parallel text", func() {
			fb, err := c.Compose(model.ValidationResult{Correct: true, Confidence: 0.95}, "en")
			So(err, ShouldBeNil)
			So(fb.TextAlt, ShouldContainSubstring, "बढ़िया")
		})

		Convey("An incorrect result yields corrective feedback", func() {
			res := model.ValidationResult{
				Correct:    false,
				Confidence: 0.4,
				Deviations: []model.Deviation{
					{LandmarkIndex: 4, Description: "thumb_tip displaced", Magnitude: 0.3},
					{LandmarkIndex: 8, Description: "index_tip displaced", Magnitude: 0.05},
				},
			}
			fb, err := c.Compose(res, "en")
			So(err, ShouldBeNil)
			So(fb.Kind, ShouldEqual, model.FeedbackCorrective)

			Convey("Only significant deviations produce instructions", func() {
				So(len(fb.Instructions), ShouldEqual, 1)
				So(fb.Instructions[0], ShouldContainSubstring, strconv.Itoa(4))
			})
		})

		Convey("Corrective feedback never has empty instructions", func() {
			res := model.ValidationResult{
				Correct:    false,
				Confidence: 0.7,
				Deviations: []model.Deviation{
					{LandmarkIndex: 2, Description: "thumb_mcp displaced", Magnitude: 0.05},
				},
			}
			fb, err := c.Compose(res, "en")
			So(err, ShouldBeNil)
			So(len(fb.Instructions), ShouldEqual, 1)
			So(strings.TrimSpace(fb.Instructions[0]), ShouldNotBeEmpty)
		})

		Convey("An unsupported language returns an error", func() {
			_, err := c.Compose(model.ValidationResult{Correct: true}, "fr")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a composer with a custom significance threshold", t, func() {
		c, err := NewComposer(WithSignificanceThreshold(0.5))
		So(err, ShouldBeNil)

		Convey("Deviations below the threshold fall back to the generic instruction", func() {
			res := model.ValidationResult{
				Correct:    false,
				Confidence: 0.3,
				Deviations: []model.Deviation{
					{LandmarkIndex: 1, Description: "thumb_cmc displaced", Magnitude: 0.4},
				},
			}
			fb, err := c.Compose(res, "en")
			So(err, ShouldBeNil)
			So(len(fb.Instructions), ShouldEqual, 1)
			So(fb.Instructions[0], ShouldContainSubstring, "reference video")
		})
	})
}
