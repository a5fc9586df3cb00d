package server

var HandlerName = handlerName
