package cloud

import "time"

// Identity is the normalized result of a credential check against the
// provider's identity service.
type Identity struct {
	Account string `json:"account"`
	UserID  string `json:"user_id"`
	ARN     string `json:"arn"`
}

type SecurityGroup struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

// ComputeInstance is a normalized virtual machine. The JSON form is stored
// verbatim as the resource detail payload.
type ComputeInstance struct {
	InstanceID         string            `json:"instance_id"`
	InstanceType       string            `json:"instance_type"`
	State              string            `json:"state"`
	StateCode          int32             `json:"state_code"`
	Architecture       string            `json:"architecture"`
	LaunchTime         *time.Time        `json:"launch_time,omitempty"`
	AvailabilityZone   string            `json:"availability_zone"`
	VPCID              string            `json:"vpc_id"`
	SubnetID           string            `json:"subnet_id"`
	PrivateIPAddress   string            `json:"private_ip_address"`
	PublicIPAddress    string            `json:"public_ip_address"`
	PrivateDNSName     string            `json:"private_dns_name"`
	PublicDNSName      string            `json:"public_dns_name"`
	KeyName            string            `json:"key_name"`
	SecurityGroups     []SecurityGroup   `json:"security_groups"`
	IAMInstanceProfile string            `json:"iam_instance_profile"`
	Monitoring         string            `json:"monitoring"`
	Tags               map[string]string `json:"tags"`
	Platform           string            `json:"platform"`
	EBSOptimized       bool              `json:"ebs_optimized"`
	RootDeviceType     string            `json:"root_device_type"`
	VirtualizationType string            `json:"virtualization_type"`
}

// StorageBucket is a normalized object-storage container. SizeGB is resolved
// from the most recent monitoring datapoint and is zero when the provider has
// no recent monitoring data for the bucket.
type StorageBucket struct {
	Name         string     `json:"name"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
	Region       string     `json:"region"`
	SizeGB       float64    `json:"size"`
	ARN          string     `json:"arn"`
}

// DBInstance is a normalized managed database instance.
type DBInstance struct {
	Identifier       string     `json:"resource_id"`
	InstanceClass    string     `json:"resource_class"`
	Engine           string     `json:"engine"`
	Status           string     `json:"resource_status"`
	AllocatedStorage int32      `json:"allocated_storage"`
	Address          string     `json:"address"`
	CreationDate     *time.Time `json:"creation_date,omitempty"`
	StorageType      string     `json:"storage_type"`
	Region           string     `json:"region"`
}
