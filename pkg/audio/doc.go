// Package audio provides the pure PCM codec shared by the capture and
// playback paths: conversion between normalized float samples and 16-bit
// signed little-endian wire PCM, base64 transport encoding, WAV container
// serialization, and byte/duration math for fixed audio formats.
package audio
