//go:build !windows

package service

func lockViolation(error) bool { return false }
