// Package common — errors.go определяет ошибки, общие для всех модулей сервиса.
// HTTP-слой различает их через errors.Is и отдаёт клиенту стабильный код
// и понятное сообщение, не раскрывая внутренних деталей.
package common

import "errors"

// Ошибки запроса и аутентификации (до любого обращения к БД)
var (
	// ErrValidation — в запросе нет обязательных полей или они некорректны
	ErrValidation = errors.New("некорректный запрос")
	// ErrAuthRequired — в заголовке Authorization нет initData
	ErrAuthRequired = errors.New("отсутствует initData")
	// ErrAuth — подпись initData не прошла проверку или не удалось определить пользователя
	ErrAuth = errors.New("недопустимый запрос")
	// ErrStaleAuth — initData слишком старые
	ErrStaleAuth = errors.New("срок действия сессии истёк")
)

// Ошибки рулетки
var (
	// ErrToken — токен не найден, чужой, уже использован или просрочен
	ErrToken = errors.New("недействительный или устаревший токен")
	// ErrUnknownCase — кейс не зарегистрирован в каталоге
	ErrUnknownCase = errors.New("недопустимый тип кейса")
	// ErrUserNotFound — пользователя нет в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrInsufficientBalance — не хватает звёзд на открытие кейса
	ErrInsufficientBalance = errors.New("недостаточно звёзд для запуска")
)

// ErrInternal — сбой БД или другой инфраструктуры. Детали пишутся только в лог.
var ErrInternal = errors.New("ошибка сервера")
