package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`      // base64 encoded image
	Model            string `json:"model"`    // "Facenet512", "VGG-Face", etc
	Detector         string `json:"detector"` // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

// FacialArea carries the box and, for retinaface/mtcnn, five keypoints.
// A keypoint the detector could not place is null.
type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`

	LeftEye    []int `json:"left_eye,omitempty"`
	RightEye   []int `json:"right_eye,omitempty"`
	Nose       []int `json:"nose,omitempty"`
	MouthLeft  []int `json:"mouth_left,omitempty"`
	MouthRight []int `json:"mouth_right,omitempty"`
}

// expectedKeypoints is the number of keypoints retinaface reports per face.
const expectedKeypoints = 5

// VisibleKeypoints counts keypoints that came back with coordinates.
func (a FacialArea) VisibleKeypoints() int {
	n := 0
	for _, p := range [][]int{a.LeftEye, a.RightEye, a.Nose, a.MouthLeft, a.MouthRight} {
		if len(p) >= 2 {
			n++
		}
	}
	return n
}

// HasKeypoints reports whether the detector returned a keypoint model at all.
func (a FacialArea) HasKeypoints() bool {
	return a.VisibleKeypoints() > 0
}
