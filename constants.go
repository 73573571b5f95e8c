package main

import "time"

type Mode int

const (
	ModeNormal Mode = iota
	ModeStroke
	ModePaint
	ModeFileInput
	ModeConfirm
	ModePlayback
)

type FileOperation int

const (
	FileOpSave FileOperation = iota
	FileOpOpen
)

type ConfirmAction int

const (
	ConfirmClear ConfirmAction = iota
	ConfirmQuit
	ConfirmOverwriteFile
	ConfirmChooseExportType
)

const (
	alphaStep     = 0.1
	windFrameRate = time.Second / 20
	logFileName   = "fractalforest.log"
	debugEnv      = "FRACTALFOREST_DEBUG"
)
