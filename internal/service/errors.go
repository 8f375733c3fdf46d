package service

import "errors"

// ErrUpstreamFetch - запрос к Bunq API завершился ошибкой.
// Отсутствие ключа API ошибкой не является: шлюз в этом случае
// работает в демо-режиме и до запросов к Bunq не доходит.
var ErrUpstreamFetch = errors.New("ошибка запроса к Bunq API")
