package model

// ImageSize is the side length of the classifier's square input
const ImageSize = 28

// Image is a row-major grayscale image with values in [0,1]
type Image [ImageSize * ImageSize]float32

// Prediction is one ranked label from the classifier
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// GuessResult is the outcome of evaluating a drawing
type GuessResult struct {
	Predictions []Prediction
	IsCorrect   bool
}
