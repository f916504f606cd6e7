// handlers.go — взаимодействие с админ-панелью в личных сообщениях.
// Поток: кнопка Reply Keyboard → (при необходимости) пошаговый диалог →
// операция сервиса. Состояния диалога живут в памяти с таймаутом.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"tabel-bot/internal/common"
	"tabel-bot/internal/features/status"
	"tabel-bot/internal/storage"
)

// Кнопки админ-панели.
const (
	btnUsers     = "👥 Сотрудники"
	btnStats     = "📊 Статистика"
	btnBroadcast = "📣 Рассылка"
	btnExport    = "📥 Экспорт месяца"
	btnPromote   = "⭐ Назначить админа"
	btnDemote    = "🚫 Снять админа"
	btnDelete    = "🗑 Удалить сотрудника"
)

// Handler обрабатывает сообщения админ-панели.
type Handler struct {
	service       *Service
	statusService *status.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, statusService *status.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		statusService: statusService,
		bot:           bot,
	}
}

// ShowKeyboard отображает клавиатуру панели. Кнопки выдачи/снятия прав
// видит только создатель.
func (h *Handler) ShowKeyboard(userID int64, chatID int64) {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnUsers),
			tgbotapi.NewKeyboardButton(btnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBroadcast),
			tgbotapi.NewKeyboardButton(btnExport),
		),
	}
	if h.service.IsCreator(userID) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPromote),
			tgbotapi.NewKeyboardButton(btnDemote),
		))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnDelete),
	))

	msg := tgbotapi.NewMessage(chatID, "🔧 Админ-панель открыта")
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

// HandleMessage обрабатывает сообщение администратора в DM.
// Возвращает true, если сообщение относилось к панели.
func (h *Handler) HandleMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.service.IsAdmin(ctx, userID) {
		return false
	}

	// Сначала — незавершённый пошаговый диалог.
	if state := h.service.GetState(userID); state != nil {
		switch state.State {
		case StatePromoteSelect:
			h.handleSetAdminSelect(ctx, chatID, userID, text, state, true)
		case StateDemoteSelect:
			h.handleSetAdminSelect(ctx, chatID, userID, text, state, false)
		case StateDeleteSelect:
			h.handleDeleteSelect(ctx, chatID, userID, text, state)
		case StateBroadcastText:
			h.handleBroadcastText(ctx, chatID, userID, text)
		case StateExportMonth:
			h.handleExportMonth(ctx, chatID, userID, text)
		default:
			h.service.ClearState(userID)
			return false
		}
		return true
	}

	switch text {
	case btnUsers:
		h.handleListUsers(ctx, chatID, userID)
	case btnStats:
		h.handleStats(ctx, chatID, userID)
	case btnBroadcast:
		h.sendMessage(chatID, "Введите текст рассылки (уйдёт каждому сотруднику):")
		h.service.SetState(userID, StateBroadcastText, nil)
	case btnExport:
		h.sendMessage(chatID, "Введите год и месяц табеля (например: 2024 2)\nили «-» для текущего месяца:")
		h.service.SetState(userID, StateExportMonth, nil)
	case btnPromote:
		h.startSetAdmin(ctx, chatID, userID, true)
	case btnDemote:
		h.startSetAdmin(ctx, chatID, userID, false)
	case btnDelete:
		h.startDelete(ctx, chatID, userID)
	default:
		return false
	}
	return true
}

// --- Список сотрудников ---

func (h *Handler) handleListUsers(ctx context.Context, chatID, userID int64) {
	users, err := h.service.ListUsers(ctx, userID)
	if err != nil {
		h.reportError(chatID, err)
		return
	}
	if len(users) == 0 {
		h.sendMessage(chatID, "В справочнике пока никого нет")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 Всего: %d %s\n\n", len(users), common.PluralizeEmployees(len(users))))
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, u.FullName))
		if u.TabNumber != "" {
			sb.WriteString(fmt.Sprintf(" (таб. %s)", u.TabNumber))
		}
		if h.service.IsCreator(u.UserID) {
			sb.WriteString(" — создатель")
		} else if u.IsAdmin {
			sb.WriteString(" — админ")
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

// --- Статистика за день ---

func (h *Handler) handleStats(ctx context.Context, chatID, userID int64) {
	day := h.statusService.Today()
	stats, missing, err := h.statusService.DailySummary(ctx, day)
	if err != nil {
		h.reportError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Сводка за %s\n\n", common.FormatDate(day)))
	if len(stats) == 0 {
		sb.WriteString("Статусов пока нет\n")
	}
	// Сначала известные кнопки в фиксированном порядке, потом произвольные метки.
	seen := make(map[string]bool)
	for _, label := range status.Labels {
		if n, ok := stats[label]; ok {
			sb.WriteString(fmt.Sprintf("%s — %d\n", label, n))
			seen[label] = true
		}
	}
	for label, n := range stats {
		if !seen[label] {
			sb.WriteString(fmt.Sprintf("%s — %d\n", label, n))
		}
	}

	sb.WriteString(fmt.Sprintf("\nНе отметились: %d %s", len(missing), common.PluralizeEmployees(len(missing))))
	if len(missing) > 0 && len(missing) <= 20 {
		sb.WriteString("\n")
		for _, u := range missing {
			sb.WriteString(fmt.Sprintf("• %s\n", u.FullName))
		}
	}
	h.sendMessage(chatID, sb.String())
}

// --- Выдача/снятие прав (только создатель) ---

func (h *Handler) startSetAdmin(ctx context.Context, chatID, userID int64, promote bool) {
	if !h.service.IsCreator(userID) {
		h.sendMessage(chatID, "⛔ Назначать и снимать админов может только создатель")
		return
	}

	users, err := h.service.ListUsers(ctx, userID)
	if err != nil {
		h.reportError(chatID, err)
		return
	}

	// promote — выбираем из обычных сотрудников, demote — из админов.
	var candidates []*storage.User
	for _, u := range users {
		if h.service.IsCreator(u.UserID) {
			continue
		}
		if u.IsAdmin != promote {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		if promote {
			h.sendMessage(chatID, "Некого назначать: все уже админы или список пуст")
		} else {
			h.sendMessage(chatID, "Нет админов, кроме создателя")
		}
		return
	}

	h.sendMessage(chatID, numberedList("Выберите сотрудника (отправьте номер):", candidates))
	if promote {
		h.service.SetState(userID, StatePromoteSelect, candidates)
	} else {
		h.service.SetState(userID, StateDemoteSelect, candidates)
	}
}

func (h *Handler) handleSetAdminSelect(ctx context.Context, chatID, userID int64, text string, state *PanelState, promote bool) {
	selected, ok := pickByNumber(text, state.Users)
	if !ok {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	if err := h.service.SetAdmin(ctx, userID, selected.UserID, promote); err != nil {
		h.reportError(chatID, err)
		h.service.ClearState(userID)
		return
	}

	if promote {
		h.sendMessage(chatID, fmt.Sprintf("✅ %s теперь администратор", selected.FullName))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("✅ %s больше не администратор", selected.FullName))
	}
	h.service.ClearState(userID)
}

// --- Удаление сотрудника ---

func (h *Handler) startDelete(ctx context.Context, chatID, userID int64) {
	users, err := h.service.ListUsers(ctx, userID)
	if err != nil {
		h.reportError(chatID, err)
		return
	}

	// Создатель и админы защищены — их в список не предлагаем.
	var candidates []*storage.User
	for _, u := range users {
		if h.service.IsCreator(u.UserID) || u.IsAdmin {
			continue
		}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		h.sendMessage(chatID, "Удалять некого")
		return
	}

	h.sendMessage(chatID, numberedList(
		"Выберите сотрудника для удаления (отправьте номер).\n"+
			"Вместе с сотрудником удалятся все его статусы:", candidates))
	h.service.SetState(userID, StateDeleteSelect, candidates)
}

func (h *Handler) handleDeleteSelect(ctx context.Context, chatID, userID int64, text string, state *PanelState) {
	selected, ok := pickByNumber(text, state.Users)
	if !ok {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	if err := h.service.DeleteUser(ctx, userID, selected.UserID); err != nil {
		h.reportError(chatID, err)
		h.service.ClearState(userID)
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🗑 %s удалён вместе со статусами", selected.FullName))
	h.service.ClearState(userID)
}

// --- Рассылка ---

func (h *Handler) handleBroadcastText(ctx context.Context, chatID, userID int64, text string) {
	h.service.ClearState(userID)

	text = strings.TrimSpace(text)
	if text == "" {
		h.sendMessage(chatID, "❌ Пустую рассылку не отправляю")
		return
	}

	res, err := h.service.Broadcast(ctx, userID, text, h.send)
	if err != nil {
		h.reportError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("📣 Рассылка: отправлено %d, не доставлено %d", res.Sent, res.Failed))
}

// --- Экспорт месяца ---

func (h *Handler) handleExportMonth(ctx context.Context, chatID, userID int64, text string) {
	year, month, err := parseYearMonth(text, h.service.Now())
	if err != nil {
		h.sendMessage(chatID, "❌ Не понял. Формат: 2024 2 (год и месяц), либо «-» для текущего.")
		return
	}
	h.service.ClearState(userID)

	data, filename, err := h.service.MonthReport(ctx, userID, year, month)
	if err != nil {
		h.reportError(chatID, err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("📊 Табель за %02d.%04d", int(month), year)
	if _, err := h.bot.Send(doc); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки табеля")
		h.sendMessage(chatID, "⚠️ Не удалось отправить файл, попробуйте ещё раз")
	}
}

// parseYearMonth разбирает "ГГГГ ММ"; "-" или пустой ввод — текущий месяц.
func parseYearMonth(text string, now time.Time) (int, time.Month, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return now.Year(), now.Month(), nil
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("ожидается год и месяц")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, fmt.Errorf("некорректный год %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("некорректный месяц %q", parts[1])
	}
	return year, time.Month(m), nil
}

// --- Вспомогательные ---

// numberedList печатает нумерованный список сотрудников для выбора.
func numberedList(header string, users []*storage.User) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for i, u := range users {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, u.FullName))
		if u.TabNumber != "" {
			sb.WriteString(fmt.Sprintf(" (таб. %s)", u.TabNumber))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// pickByNumber находит сотрудника по введённому номеру из списка.
func pickByNumber(text string, users []*storage.User) (*storage.User, bool) {
	num, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || num < 1 || num > len(users) {
		return nil, false
	}
	return users[num-1], true
}

// reportError превращает типизированные ошибки в короткий ответ без стектрейса.
func (h *Handler) reportError(chatID int64, err error) {
	switch {
	case errors.Is(err, storage.ErrPermissionDenied):
		h.sendMessage(chatID, "⛔ Недостаточно прав")
	case errors.Is(err, storage.ErrProtectedUser):
		h.sendMessage(chatID, "⛔ Создателя и админов удалять нельзя")
	case errors.Is(err, storage.ErrUserNotFound):
		h.sendMessage(chatID, "❌ Сотрудник не найден")
	default:
		log.WithError(err).Error("Ошибка операции админ-панели")
		h.sendMessage(chatID, "⚠️ Что-то пошло не так, попробуйте ещё раз")
	}
}

func (h *Handler) send(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if err := h.send(chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
