package inference

// PartClasses are the classes of the YOLOv8 car parts segmentation model.
var PartClasses = []string{
	"back_bumper", "back_door", "back_glass", "back_left_door", "back_left_light",
	"back_light", "back_right_door", "back_right_light", "front_bumper", "front_door",
	"front_glass", "front_left_door", "front_left_light", "front_light", "front_right_door",
	"front_right_light", "hood", "left_mirror", "object", "right_mirror",
	"tailgate", "trunk", "wheel",
}

// DamageClasses are the classes of the merged damage dataset, in data.yaml order.
var DamageClasses = []string{"dent", "scratch", "rust", "dirt", "clean"}

// DirtClasses are the classes of the dirt detection model.
var DirtClasses = []string{"clean", "dirt-clean-areas"}
