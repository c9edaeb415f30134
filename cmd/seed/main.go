// Command seed resets the document table and fills it with demo bookings,
// legacy chat lists and tokens for the demo users.
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lessonhub/internal/app"
	"lessonhub/internal/config"
	"lessonhub/internal/database"
	"lessonhub/internal/docstore"
	"lessonhub/internal/domain/booking"
	"lessonhub/internal/domain/chat"
	jwtsvc "lessonhub/internal/pkg/jwt"
)

type demoUser struct {
	ID   string
	Role string
	Name string
}

var (
	teacherAnna = demoUser{ID: "teacher-anna", Role: "teacher", Name: "Анна Смирнова"}
	teacherOleg = demoUser{ID: "teacher-oleg", Role: "teacher", Name: "Олег Петров"}
	studentIlya = demoUser{ID: "student-ilya", Role: "student", Name: "Илья Кузнецов"}
	studentMila = demoUser{ID: "student-mila", Role: "student", Name: "Мила Орлова"}
	admin       = demoUser{ID: "admin", Role: "admin", Name: "Администратор"}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	logger := app.NewLogger(cfg.AppEnv)
	defer func() { _ = logger.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	logger.Info("Cleaning old documents")
	if err := db.Exec("DELETE FROM documents").Error; err != nil {
		logger.Fatal("Cleanup failed", zap.Error(err))
	}

	ctx := context.Background()
	server := docstore.NewGorm(db)

	// Legacy lists must exist before the first thread read seeds from them.
	if err := seedLegacyChats(ctx, server); err != nil {
		logger.Fatal("Seeding legacy chats failed", zap.Error(err))
	}

	c := app.NewContainer(server, docstore.NewMemory(), cfg.RescheduleOffset, logger)
	if err := seedBookings(ctx, c.Bookings); err != nil {
		logger.Fatal("Seeding bookings failed", zap.Error(err))
	}
	if _, err := c.Chat.Sync(ctx); err != nil {
		logger.Fatal("Chat sync failed", zap.Error(err))
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	fmt.Println("Demo tokens:")
	for _, u := range []demoUser{teacherAnna, teacherOleg, studentIlya, studentMila, admin} {
		token, err := j.GenerateToken(u.ID, u.Role, u.Name)
		if err != nil {
			logger.Fatal("Token generation failed", zap.Error(err))
		}
		fmt.Printf("  %-8s %-14s %s\n", u.Role, u.ID, token)
	}
	logger.Info("Seed completed")
}

func seedLegacyChats(ctx context.Context, docs docstore.Store) error {
	base := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Minute)

	teacherLists := []chat.LegacyThread{
		{
			OwnerID: teacherAnna.ID, OwnerName: teacherAnna.Name,
			CounterpartID: studentIlya.ID, CounterpartName: studentIlya.Name,
			Subject: "Английский", CourseTitle: "Разговорный английский B1",
			UpdatedAt: base.Add(2 * time.Hour),
			Messages: []chat.LegacyMessage{
				{ID: "legacy-1", FromMe: false, Text: "Здравствуйте! Можно начать с грамматики?", SentAt: base},
				{ID: "legacy-2", FromMe: true, Text: "Конечно, подготовлю план урока.", SentAt: base.Add(2 * time.Hour)},
			},
		},
	}
	studentLists := []chat.LegacyThread{
		{
			OwnerID: studentIlya.ID, OwnerName: studentIlya.Name,
			CounterpartID: teacherAnna.ID, CounterpartName: teacherAnna.Name,
			Subject: "Английский", CourseTitle: "Разговорный английский B1",
			UpdatedAt: base.Add(2 * time.Hour), Unread: 1,
			Messages: []chat.LegacyMessage{
				{ID: "legacy-1", FromMe: true, Text: "Здравствуйте! Можно начать с грамматики?", SentAt: base},
				{ID: "legacy-2", FromMe: false, Text: "Конечно, подготовлю план урока.", SentAt: base.Add(2 * time.Hour)},
			},
		},
		{
			OwnerID: studentMila.ID, OwnerName: studentMila.Name,
			CounterpartID: teacherOleg.ID, CounterpartName: teacherOleg.Name,
			Subject: "Математика", CourseTitle: "Подготовка к ЕГЭ",
			UpdatedAt: base.Add(5 * time.Hour),
			Messages: []chat.LegacyMessage{
				{ID: "legacy-3", FromMe: true, Text: "Пришлю задачи вечером.", SentAt: base.Add(5 * time.Hour)},
			},
		},
	}

	if err := docs.Save(ctx, chat.LegacyTeacherDocument, teacherLists); err != nil {
		return err
	}
	return docs.Save(ctx, chat.LegacyStudentDocument, studentLists)
}

func seedBookings(ctx context.Context, bookings *booking.Service) error {
	day := time.Now().UTC().AddDate(0, 0, 2)
	slot := func(days, hour int) string {
		return booking.FormatSlot(time.Date(day.Year(), day.Month(), day.Day()+days, hour, 0, 0, 0, time.UTC))
	}
	amount := func(v int64) *int64 { return &v }

	request := func(t, s demoUser, course, subject, at string, rub int64, source string) (string, error) {
		out, err := bookings.RequestLesson(ctx, booking.Request{
			TeacherID: t.ID, TeacherName: t.Name,
			StudentID: s.ID, StudentName: s.Name,
			CourseID: course, Subject: subject, Slot: at,
			AmountRubles: amount(rub), Source: source,
			Message: "Хочу записаться на урок",
		})
		if err != nil {
			return "", err
		}
		return out.Booking.ID, nil
	}

	// Pending request waiting for the teacher.
	if _, err := request(teacherAnna, studentIlya, "english-b1", "Английский", slot(0, 10), 1500, booking.SourceCatalog); err != nil {
		return err
	}

	// Approved and paid.
	paid, err := request(teacherAnna, studentIlya, "english-b1", "Английский", slot(1, 10), 1500, booking.SourceTeacherProfile)
	if err != nil {
		return err
	}
	steps := []struct {
		actor booking.Actor
		cmd   booking.Command
	}{
		{booking.ActorTeacher, booking.Approve{Message: "Жду вас на уроке"}},
		{booking.ActorSystem, booking.ConfirmPayment{PaidAt: time.Now().UTC()}},
	}
	for _, s := range steps {
		if _, err := bookings.Apply(ctx, s.actor, paid, s.cmd); err != nil {
			return err
		}
	}

	// Teacher offered another time.
	moved, err := request(teacherOleg, studentMila, "math-ege", "Математика", slot(0, 18), 2000, booking.SourceClassroom)
	if err != nil {
		return err
	}
	if _, err := bookings.Apply(ctx, booking.ActorTeacher, moved, booking.ProposeReschedule{Message: "В это время я занят"}); err != nil {
		return err
	}

	// Paid then cancelled by the teacher, which opens a refund.
	refunded, err := request(teacherOleg, studentMila, "math-ege", "Математика", slot(2, 18), 2000, booking.SourceCatalog)
	if err != nil {
		return err
	}
	steps = []struct {
		actor booking.Actor
		cmd   booking.Command
	}{
		{booking.ActorTeacher, booking.Approve{}},
		{booking.ActorSystem, booking.ConfirmPayment{PaidAt: time.Now().UTC()}},
		{booking.ActorTeacher, booking.Cancel{Reason: "Заболел"}},
	}
	for _, s := range steps {
		if _, err := bookings.Apply(ctx, s.actor, refunded, s.cmd); err != nil {
			return err
		}
	}
	return nil
}
