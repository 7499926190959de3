package risk

import (
	"testing"

	"steward/internal/study/models"
)

func FuzzScore(f *testing.F) {
	f.Add(uint16(0), uint16(0))
	f.Add(uint16(0xffff), uint16(0))
	f.Add(uint16(0x000f), uint16(0x00f0))
	f.Fuzz(func(t *testing.T, set, values uint16) {
		flag := func(bit uint) *bool {
			if set&(1<<bit) == 0 {
				return nil
			}
			return models.Bool(values&(1<<bit) != 0)
		}
		d := models.Declarations{
			InvolvesDataProcessingOutsideEEA: flag(0),
			RequiresDBS:                      flag(1),
			RequiresDSPT:                     flag(2),
			InvolvesThirdParty:               flag(3),
			InvolvesMNCA:                     flag(4),
			InvolvesNHSEngland:               flag(5),
			InvolvesCAG:                      flag(6),
			InvolvesEthicsApproval:           flag(7),
			IsUCLSponsored:                   flag(8),
		}
		a := Score(d)
		if a.Score < 0 || a.Score > Max() {
			t.Fatalf("score %d out of range", a.Score)
		}
		if a.Score%5 != 0 {
			t.Fatalf("score %d not a multiple of 5", a.Score)
		}
	})
}
