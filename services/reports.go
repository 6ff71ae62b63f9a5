package services

import (
	"context"
	"time"

	"github.com/bellapacxx/bingo-hall/models"
	"gorm.io/gorm"
)

// Totals are the grand totals over a set of finished games. TotalStake sums
// the per-card stake; TotalSales multiplies it by the player count.
type Totals struct {
	TotalStake int64 `json:"total_stake"`
	TotalSales int64 `json:"total_sales"`
	TotalWin   int64 `json:"total_win"`
	Games      int64 `json:"games"`
	Profit     int64 `json:"profit"`
}

type Report struct {
	Games  []models.GameRecord `json:"games"`
	Totals Totals              `json:"totals"`
}

type DayStats struct {
	Date   string `json:"date"`
	Totals Totals `json:"totals"`
}

type MonthlyReport struct {
	HouseID string     `json:"house_id"`
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Days    []DayStats `json:"days"`
	Totals  Totals     `json:"totals"`
}

// Reports answers the aggregation queries over finished games. Day and
// month boundaries are taken in loc.
type Reports struct {
	db  *gorm.DB
	loc *time.Location
}

func NewReports(db *gorm.DB, loc *time.Location) *Reports {
	if loc == nil {
		loc = time.UTC
	}
	return &Reports{db: db, loc: loc}
}

type scope func(*gorm.DB) *gorm.DB

func where(query string, args ...any) scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

func (r *Reports) totals(ctx context.Context, scopes ...scope) (Totals, error) {
	var t Totals
	q := r.db.WithContext(ctx).Model(&models.GameRecord{})
	for _, s := range scopes {
		q = s(q)
	}
	err := q.Select(`
		COALESCE(SUM(stake), 0) AS total_stake,
		COALESCE(SUM(stake * player_count), 0) AS total_sales,
		COALESCE(SUM(win_amount), 0) AS total_win,
		COUNT(*) AS games`).
		Scan(&t).Error
	t.Profit = t.TotalSales - t.TotalWin
	return t, err
}

func (r *Reports) report(ctx context.Context, scopes ...scope) (Report, error) {
	var rep Report
	q := r.db.WithContext(ctx).Model(&models.GameRecord{})
	for _, s := range scopes {
		q = s(q)
	}
	if err := q.Order("finished_at DESC").Find(&rep.Games).Error; err != nil {
		return rep, err
	}
	t, err := r.totals(ctx, scopes...)
	rep.Totals = t
	return rep, err
}

func (r *Reports) dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.In(r.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, r.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// ByDateAndUser lists a cashier's games finished on the given day.
func (r *Reports) ByDateAndUser(ctx context.Context, day time.Time, cashierID string) (Report, error) {
	from, to := r.dayBounds(day)
	return r.report(ctx,
		where("cashier_id = ?", cashierID),
		where("finished_at >= ? AND finished_at < ?", from, to))
}

// ByUser lists every game run by a cashier.
func (r *Reports) ByUser(ctx context.Context, cashierID string) (Report, error) {
	return r.report(ctx, where("cashier_id = ?", cashierID))
}

// ByHouse lists a house's games with grand totals.
func (r *Reports) ByHouse(ctx context.Context, houseID string) (Report, error) {
	return r.report(ctx, where("house_id = ?", houseID))
}

// ByAgent lists an agent's games with grand totals.
func (r *Reports) ByAgent(ctx context.Context, agentID string) (Report, error) {
	return r.report(ctx, where("agent_id = ?", agentID))
}

// MonthlyStats breaks a house's month down by day. Days without games are
// omitted.
func (r *Reports) MonthlyStats(ctx context.Context, houseID string, year int, month time.Month) (MonthlyReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 1, 0)
	out := MonthlyReport{HouseID: houseID, Year: year, Month: int(month), Days: []DayStats{}}

	var rows []models.GameRecord
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND finished_at >= ? AND finished_at < ?", houseID, start.UTC(), end.UTC()).
		Order("finished_at").
		Find(&rows).Error
	if err != nil {
		return out, err
	}

	index := make(map[string]int)
	for _, g := range rows {
		key := g.EndTime.In(r.loc).Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(out.Days)
			index[key] = i
			out.Days = append(out.Days, DayStats{Date: key})
		}
		addGame(&out.Days[i].Totals, g)
		addGame(&out.Totals, g)
	}
	return out, nil
}

func addGame(t *Totals, g models.GameRecord) {
	sales := g.Stake * int64(g.PlayerCount)
	t.TotalStake += g.Stake
	t.TotalSales += sales
	t.TotalWin += g.WinAmount
	t.Games++
	t.Profit += sales - g.WinAmount
}
