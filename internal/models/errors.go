package models

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists запись с таким ключом уже существует.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive пользователь заблокирован.
	ErrUserInactive = errors.New("user is inactive")
	// ErrDuplicateEvent событие уже было обработано.
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrStatusChanged статус записи изменился после чтения.
	ErrStatusChanged = errors.New("status changed concurrently")
)
