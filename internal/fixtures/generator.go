// Package fixtures generates synthetic rosters and bank statements for tests
// and demos. Output is fully determined by the seed.
package fixtures

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/aidat/internal/domain"
)

var (
	firstNames = []string{"Ahmet", "Mehmet", "Ayşe", "Fatma", "Zeynep", "Emre", "Elif", "Burak", "Çağla", "İlker", "Şule", "Gökhan", "Özge", "Ümit", "Deniz", "Kerem"}
	surnames   = []string{"Yılmaz", "Kaya", "Demir", "Şahin", "Çelik", "Yıldız", "Öztürk", "Aydın", "Arslan", "Doğan", "Kılıç", "Aslan", "Çetin", "Koç", "Kurt", "Özdemir"}
	months     = []string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}
	noise      = []string{"EFT MARKET ALIŞVERİŞ", "POS KIRTASİYE", "FAST PARA TRANSFERİ", "ATM NAKİT ÇEKİM", "KİRA ÖDEMESİ", "ELEKTRİK FATURASI"}
	fees       = []string{"500", "750", "1000", "1250.50"}
)

// Set is a generated roster with a statement that pays into it.
type Set struct {
	Athletes []domain.AthleteIdentity
	Rows     []domain.TransactionRow
}

// Generate builds athletes and rows from seed. Roughly one athlete in eight is
// inactive and one row in five is unrelated noise.
func Generate(seed uint64, athletes, rows int) Set {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	set := Set{Athletes: make([]domain.AthleteIdentity, 0, athletes), Rows: make([]domain.TransactionRow, 0, rows)}
	for i := range athletes {
		surname := pick(rng, surnames)
		a := domain.AthleteIdentity{
			ID:             fmt.Sprintf("a%03d", i+1),
			StudentName:    pick(rng, firstNames),
			StudentSurname: surname,
			ParentName:     pick(rng, firstNames),
			ParentSurname:  surname,
			Status:         "aktif",
		}
		if rng.IntN(8) == 0 {
			a.Status = "pasif"
		}
		set.Athletes = append(set.Athletes, a)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for range rows {
		row := domain.TransactionRow{
			Date:   start.AddDate(0, 0, rng.IntN(365)),
			Amount: decimal.RequireFromString(pick(rng, fees)),
		}
		month := months[row.Date.Month()-1]
		switch {
		case len(set.Athletes) == 0 || rng.IntN(5) == 0:
			row.Description = pick(rng, noise)
		case rng.IntN(2) == 0:
			a := set.Athletes[rng.IntN(len(set.Athletes))]
			row.Description = fmt.Sprintf("%s %s %s aidat", a.StudentName, a.StudentSurname, month)
		default:
			a := set.Athletes[rng.IntN(len(set.Athletes))]
			row.Description = fmt.Sprintf("HAVALE %s %s %s AİDATI", a.ParentName, a.ParentSurname, month)
			row.Reference = fmt.Sprintf("TR%08d", rng.IntN(100_000_000))
		}
		set.Rows = append(set.Rows, row)
	}
	return set
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}
