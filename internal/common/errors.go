// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки реестра администратора
var (
	// ErrAlreadyInitialized — администратор уже назначен, повторная инициализация запрещена
	ErrAlreadyInitialized = errors.New("аирдроп уже инициализирован")
	// ErrNotInitialized — администратор ещё не назначен
	ErrNotInitialized = errors.New("аирдроп не инициализирован")
	// ErrUnauthorized — вызов не подтверждён нужным аккаунтом
	ErrUnauthorized = errors.New("нет прав на это действие")
	// ErrTokenNotConfigured — токен для выплат не задан
	ErrTokenNotConfigured = errors.New("токен для выплат не настроен")
)

// Ошибки аирдропа
var (
	// ErrAlreadyClaimed — награда за это действие уже получена
	ErrAlreadyClaimed = errors.New("награда за это действие уже получена")
	// ErrActionNotRewarded — за действие не назначена награда
	ErrActionNotRewarded = errors.New("за это действие награда не предусмотрена")
	// ErrUnknownAction — неизвестный код действия
	ErrUnknownAction = errors.New("неизвестное действие")
	// ErrTransferFailed — перевод токенов не прошёл
	ErrTransferFailed = errors.New("перевод токенов не выполнен")
)

// Ошибки экономики (балансы, переводы)
var (
	// ErrInsufficientBalance — недостаточно токенов на счёте
	ErrInsufficientBalance = errors.New("недостаточно токенов на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль, отрицательная или вне диапазона int128)
	ErrInvalidAmount = errors.New("некорректная сумма")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
