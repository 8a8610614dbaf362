package audience_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tale-server/internal/audience"
	"tale-server/internal/models"
)

func TestProfileFor(t *testing.T) {
	t.Run("Known audiences return their own profile", func(t *testing.T) {
		assert.Equal(t, 300, audience.ProfileFor(models.AudiencePreschool).MaxWordCount)
		assert.Equal(t, 800, audience.ProfileFor(models.AudienceEarlyReader).MaxWordCount)
		assert.Equal(t, 2000, audience.ProfileFor(models.AudienceMiddleGrade).MaxWordCount)
		assert.Equal(t, 4000, audience.ProfileFor(models.AudienceYoungAdult).MaxWordCount)
		assert.Equal(t, 6000, audience.ProfileFor(models.AudienceAdult).MaxWordCount)
	})

	t.Run("Unknown audience falls back to middle grade", func(t *testing.T) {
		fallback := audience.ProfileFor(models.AudienceType("toddler"))
		assert.Equal(t, audience.ProfileFor(models.AudienceMiddleGrade), fallback)
	})

	t.Run("Every profile carries an illustration style", func(t *testing.T) {
		for _, at := range []models.AudienceType{
			models.AudiencePreschool, models.AudienceEarlyReader,
			models.AudienceMiddleGrade, models.AudienceYoungAdult, models.AudienceAdult,
		} {
			assert.NotEmpty(t, audience.ProfileFor(at).IllustrationStyle, string(at))
		}
	})
}
